package netlink

// RTNetlink multicast group numbers (enum rtnetlink_groups in
// linux/rtnetlink.h), passed to JoinGroup or Config.Groups. These are group
// numbers for the modern NETLINK_ADD_MEMBERSHIP setsockopt API, not the
// legacy RTMGRP_* bitmask used by the old bind()-time groups field.
const (
	GroupLink       = 1
	GroupNotify     = 2
	GroupNeighbor   = 3
	GroupTC         = 4
	GroupIPv4IfAddr = 5
	GroupIPv4Route  = 7
	GroupIPv4Rule   = 8
	GroupIPv6IfAddr = 9
	GroupIPv6Route  = 11
	GroupIPv6IfInfo = 12
	GroupIPv6Rule   = 19
)
