// Package agent exposes the devcheck scenario runner as MCP tools.
//
// TestMCPServer speaks MCP over stdio so an assistant can list the available
// scenarios, run a filtered subset and fetch the last suite result. Only one
// run is in flight at a time.
//
// Example usage:
//
//	srv, err := agent.NewTestMCPServer(config)
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
package agent
