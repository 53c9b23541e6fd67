// Package rtnl implements the RTNetlink typed message layer: link, address,
// route, neighbor, and rule request builders and response parsers, plus the
// RTNetlink event stream and the name-or-index interface reference.
//
// Every operation here is built on the wire codec and request engine in the
// parent github.com/kuuji/nlink package; rtnl adds no wire-level logic of
// its own beyond the kernel constant tables in this file.
package rtnl

// RTNetlink message types (RTM_*). These mirror linux/rtnetlink.h exactly;
// a captured-wire-sample test pins them (spec.md §4.2).
const (
	rtmNewLink  = 16
	rtmDelLink  = 17
	rtmGetLink  = 18
	rtmSetLink  = 19
	rtmNewAddr  = 20
	rtmDelAddr  = 21
	rtmGetAddr  = 22
	rtmNewRoute = 24
	rtmDelRoute = 25
	rtmGetRoute = 26
	rtmNewNeigh = 28
	rtmDelNeigh = 29
	rtmGetNeigh = 30
	rtmNewRule  = 32
	rtmDelRule  = 33
	rtmGetRule  = 34

	rtmNewQdisc  = 36
	rtmDelQdisc  = 37
	rtmGetQdisc  = 38
	rtmNewTClass = 40
	rtmDelTClass = 41
	rtmGetTClass = 42
	rtmNewTFilter = 44
	rtmDelTFilter = 45
	rtmGetTFilter = 46
	rtmNewTChain  = 100
	rtmDelTChain  = 101
	rtmGetTChain  = 102
	rtmNewAction  = 48
	rtmDelAction  = 49
	rtmGetAction  = 50
)

// Address families.
const (
	AFUnspec = 0
	AFInet   = 2
	AFInet6  = 10
	AFBridge = 7
	AFMPLS   = 28
)

// IFLA_* link attribute types (struct ifinfomsg attributes).
const (
	iflaUnspec       = 0
	iflaAddress      = 1
	iflaBroadcast    = 2
	iflaIfname       = 3
	iflaMTU          = 4
	iflaLink         = 5
	iflaQdisc        = 6
	iflaStats        = 7
	iflaStats64      = 23
	iflaLinkinfo     = 18
	iflaNetNSPID     = 19
	iflaIfalias      = 20
	iflaMaster       = 10
	iflaTXQLen       = 13
	iflaOperState    = 16
	iflaLinkMode     = 17
	iflaGroup        = 27
	iflaNumTXQueues  = 32
	iflaNumRXQueues  = 33
	iflaNetNSFD      = 28
	iflaAFSpec       = 26
)

// IFLA_LINKINFO nested attributes.
const (
	iflaInfoKind  = 1
	iflaInfoData  = 2
	iflaInfoSlaveKind = 4
)

// IFLA_AF_SPEC > AF_BRIDGE nested attributes (bridge VLAN filtering).
const (
	iflaBridgeVlanInfo = 2
)

// Bridge VLAN flags (struct bridge_vlan_info.flags).
const (
	bridgeVlanInfoMaster  = 1 << 0
	bridgeVlanInfoPVID    = 1 << 1
	bridgeVlanInfoUntagged = 1 << 2
)

// Link flags (struct ifinfomsg.ifi_flags / ifi_change), a subset of
// include/uapi/linux/if.h's IFF_*.
const (
	IFFUp      = 1 << 0
	IFFBroadcast = 1 << 1
	IFFLoopback = 1 << 3
	IFFPointopoint = 1 << 4
	IFFNoArp   = 1 << 7
	IFFPromisc = 1 << 8
	IFFMulticast = 1 << 12
	iffChangeAll = 0xFFFFFFFF
)

// IFA_* address attribute types (struct ifaddrmsg attributes).
const (
	ifaUnspec    = 0
	ifaAddress   = 1
	ifaLocal     = 2
	ifaLabel     = 3
	ifaBroadcast = 4
	ifaAnycast   = 5
	ifaCacheInfo = 6
	ifaFlags     = 8
)

// IFA_F_* extended address flags.
const (
	IFAFSecondary = 0x01
	IFAFPermanent = 0x80
)

// RTA_* route attribute types (struct rtmsg attributes), shared with
// neighbor/rule messages where the kernel reuses the same tag space.
const (
	rtaUnspec    = 0
	rtaDst       = 1
	rtaSrc       = 2
	rtaIif       = 3
	rtaOif       = 4
	rtaGateway   = 5
	rtaPriority  = 6
	rtaPrefsrc   = 7
	rtaMetrics   = 8
	rtaMultipath = 9
	rtaFlow      = 11
	rtaEncapType = 21
	rtaEncap     = 22
	rtaExpires   = 23
	rtaTable     = 15
	rtaMark      = 16
	rtaVia       = 18
	rtaNewDst    = 19
	rtaPref      = 20
	rtaUID       = 25
)

// RTA_ENCAP_TYPE values (lwtunnel encapsulation kinds).
const (
	LWTunnelEncapMPLS = 1
	LWTunnelEncapSEG6 = 6
)

// Routing tables, protocols, scopes, types (rtm_table/rtm_protocol/
// rtm_scope/rtm_type).
const (
	RTTableUnspec = 0
	RTTableMain   = 254
	RTTableLocal  = 255

	RTProtoUnspec = 0
	RTProtoBoot   = 3
	RTProtoStatic = 4

	RTScopeUniverse = 0
	RTScopeLink     = 253
	RTScopeHost     = 254

	RTNUnspec  = 0
	RTNUnicast = 1
	RTNLocal   = 2
	RTNBroadcast = 3
	RTNBlackhole = 6
	RTNUnreachable = 7
	RTNProhibit  = 8
)

// NDA_* neighbor attribute types (struct ndmsg attributes).
const (
	ndaUnspec   = 0
	ndaDst      = 1
	ndaLLAddr   = 2
	ndaCacheInfo = 3
	ndaProbes   = 4
	ndaVLAN     = 5
	ndaIfIndex  = 8
)

// NUD_* neighbor states (ndm_state).
const (
	NUDIncomplete = 0x01
	NUDReachable  = 0x02
	NUDStale      = 0x04
	NUDDelay      = 0x08
	NUDProbe      = 0x10
	NUDFailed     = 0x20
	NUDNoARP      = 0x40
	NUDPermanent  = 0x80
)

// FRA_* rule attribute types (struct fib_rule_hdr attributes).
const (
	fraUnspec  = 0
	fraDst     = 1
	fraSrc     = 2
	fraIifname = 3
	fraGoto    = 4
	fraPriority = 6
	fraFwmark  = 10
	fraFlow    = 11
	fraTable   = 15
	fraFwmask  = 16
	fraOifname = 17
)
