package ethtool

import "github.com/kuuji/nlink"

func parseLinkState(payload []byte) LinkState {
	var s LinkState
	dec := nlink.NewAttributeDecoder(payload)
	for dec.Next() {
		switch dec.Type() {
		case linkstateLink:
			s.Link = dec.Uint8() != 0
		case linkstateSQI:
			v := dec.Uint32()
			s.SQI = &v
		case linkstateSQIMax:
			v := dec.Uint32()
			s.SQIMax = &v
		}
	}
	return s
}

func parseLinkModes(payload []byte) LinkModes {
	var m LinkModes
	dec := nlink.NewAttributeDecoder(payload)
	for dec.Next() {
		switch dec.Type() {
		case linkmodesAutoneg:
			m.Autoneg = dec.Uint8() != 0
		case linkmodesSpeed:
			v := dec.Uint32()
			m.Speed = &v
		case linkmodesDuplex:
			v := Duplex(dec.Uint8())
			m.Duplex = &v
		case linkmodesLanes:
			v := dec.Uint32()
			m.Lanes = &v
		}
	}
	return m
}

func parseRings(payload []byte) Rings {
	var r Rings
	dec := nlink.NewAttributeDecoder(payload)
	for dec.Next() {
		switch dec.Type() {
		case ringsRxMax:
			r.RxMax = dec.Uint32()
		case ringsRxMiniMax:
			r.RxMiniMax = dec.Uint32()
		case ringsRxJumboMax:
			r.RxJumboMax = dec.Uint32()
		case ringsTxMax:
			r.TxMax = dec.Uint32()
		case ringsRx:
			r.Rx = dec.Uint32()
		case ringsRxMini:
			r.RxMini = dec.Uint32()
		case ringsRxJumbo:
			r.RxJumbo = dec.Uint32()
		case ringsTx:
			r.Tx = dec.Uint32()
		}
	}
	return r
}
