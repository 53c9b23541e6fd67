package macsec

import "github.com/kuuji/nlink"

// parseDevice decodes a MACSEC_ATTR_* attribute set. payload is already
// past the genlmsghdr — genetlink.Conn.Execute strips it before returning.
func parseDevice(payload []byte) (*Device, error) {
	d := &Device{}
	dec := nlink.NewAttributeDecoder(payload)
	for dec.Next() {
		switch dec.Type() {
		case attrIfindex:
			d.Ifindex = dec.Uint32()
		case attrSecyConfig:
			d.SecY = parseSecY(dec.Nest())
		case attrTxsaList:
			d.TxSAs = parseSAs(dec.Nest())
		case attrRxscList:
			d.RxSCs = parseRxSCs(dec.Nest())
		}
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseSecY(dec *nlink.AttributeDecoder) SecY {
	var s SecY
	for dec.Next() {
		switch dec.Type() {
		case secyAttrSCI:
			s.SCI = dec.Uint64()
		case secyAttrCipherSuite:
			s.CipherSuite = dec.Uint64()
		case secyAttrICVLen:
			s.ICVLen = dec.Uint8()
		case secyAttrEncrypt:
			s.Encrypt = dec.Uint8() != 0
		case secyAttrProtect:
			s.Protect = dec.Uint8() != 0
		case secyAttrReplay:
			s.Replay = dec.Uint8() != 0
		case secyAttrWindow:
			s.Window = dec.Uint32()
		case secyAttrValidate:
			s.Validate = Validate(dec.Uint8())
		case secyAttrIncSCI:
			s.IncludeSCI = dec.Uint8() != 0
		}
	}
	return s
}

func parseSAs(dec *nlink.AttributeDecoder) []SA {
	var sas []SA
	for dec.Next() {
		sas = append(sas, parseSA(dec.Nest()))
	}
	return sas
}

func parseSA(dec *nlink.AttributeDecoder) SA {
	var sa SA
	for dec.Next() {
		switch dec.Type() {
		case saAttrAN:
			sa.AssocNum = dec.Uint8()
		case saAttrActive:
			sa.Active = dec.Uint8() != 0
		case saAttrPN:
			if len(dec.BytesValue()) == 8 {
				sa.PacketNum = dec.Uint64()
			} else {
				sa.PacketNum = uint64(dec.Uint32())
			}
		case saAttrKey:
			sa.Key = append([]byte(nil), dec.BytesValue()...)
		case saAttrKeyID:
			sa.KeyID = append([]byte(nil), dec.BytesValue()...)
		}
	}
	return sa
}

func parseRxSCs(dec *nlink.AttributeDecoder) []RxSC {
	var scs []RxSC
	for dec.Next() {
		entry := dec.Nest()
		var sc RxSC
		for entry.Next() {
			switch entry.Type() {
			case rxscAttrSCI:
				sc.SCI = entry.Uint64()
			case rxscAttrActive:
				sc.Active = entry.Uint8() != 0
			}
		}
		scs = append(scs, sc)
	}
	return scs
}
