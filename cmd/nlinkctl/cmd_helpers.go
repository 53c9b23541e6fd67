package main

import (
	"fmt"

	"github.com/kuuji/nlink/rtnl"
	"github.com/kuuji/nlink/tc"
)

// dialRTNL opens an rtnl.Conn in the namespace named by --netns, or the
// current namespace if it was left unset.
func dialRTNL() (*rtnl.Conn, error) {
	if globalNamespace == "" {
		return rtnl.Dial()
	}
	return rtnl.DialNamespace(globalNamespace)
}

// dialTC opens a tc.Conn in the current namespace. It rejects --netns, so
// nlinkctl only supports --netns for the rtnl-backed commands.
func dialTC() (*tc.Conn, error) {
	if globalNamespace != "" {
		return nil, fmt.Errorf("nlinkctl: --netns is not supported for tc commands")
	}
	return tc.Dial()
}
