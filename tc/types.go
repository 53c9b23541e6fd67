package tc

// RTM_* message types for the traffic-control subsystem. Declared locally
// rather than imported from the rtnl package, matching rtnl/types.go's own
// practice of keeping each typed layer's kernel constant table self
// contained.
const (
	rtmNewQdisc = 36
	rtmDelQdisc = 37
	rtmGetQdisc = 38

	rtmNewTClass = 40
	rtmDelTClass = 41
	rtmGetTClass = 42

	rtmNewTFilter = 44
	rtmDelTFilter = 45
	rtmGetTFilter = 46

	rtmNewTChain = 100
	rtmDelTChain = 101
	rtmGetTChain = 102

	rtmNewAction = 48
	rtmDelAction = 49
	rtmGetAction = 50
)

// tcmsgLen is sizeof(struct tcmsg): {family u8, pad[3], ifindex i32,
// handle u32, parent u32, info u32}.
const tcmsgLen = 20

// TCA_* attributes shared by qdisc/class messages.
const (
	tcaUnspec  = 0
	tcaKind    = 1
	tcaOptions = 2
	tcaStats   = 3
	tcaRate    = 5
	tcaFCnt    = 6
	tcaStats2  = 7
	tcaStab    = 8
	tcaChain   = 11
	tcaHwOffload = 12
)

// TCA_* filter-specific attributes.
const (
	tcaFilterUnspec = 0
	// tcaKind/tcaOptions/tcaChain reused from the shared block above
)

// Action attributes (struct tcamsg / TCA_ACT_TAB nesting).
const (
	tcaActTab    = 1
	tcaActKind   = 1
	tcaActOptions = 2
	tcaActIndex  = 4
)

// tcamsgLen is sizeof(struct tcamsg): {family u8, pad[3]}.
const tcamsgLen = 4
