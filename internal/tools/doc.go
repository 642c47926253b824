// Package tools defines the capability table: the tools an adapter
// advertises through tools/list and executes through tools/call.
//
// A tool is declared once with NewTool, which reflects its input schema
// from a typed argument struct and decodes incoming arguments into it:
//
//	tools.NewTool("search", "Search the catalog", func(ctx context.Context, req *tools.Request[SearchArgs]) (*tools.Result, error) {
//		return tools.TextResult("search echo: " + req.Args.Query.Trimmed()), nil
//	})
package tools
