// Package cmdline runs Ex command lines against editor state.
//
// The Engine is the single entry point. Every non-empty line it receives is
// appended to the History and, unless it names a register (see
// Options.RegisterPrefix), recorded in the read-only ':' register before
// anything else happens. Only then is the line parsed and either executed
// locally or handed to a delegation gateway:
//
//	eng := cmdline.NewEngine(cmdline.Options{
//		Parser:    excmd.NewParser(),
//		Settings:  cfgManager,
//		Status:    ui.NewStatusLine(os.Stdout),
//		Prompter:  ui.NewPrompter(os.Stdin, os.Stdout),
//		Gateway:   luaGateway,
//		Registers: regs,
//		Persister: store,
//		Logger:    logger,
//	})
//	if err := eng.Load(ctx); err != nil {
//		return err
//	}
//	eng.Run(ctx, ":%s/foo/bar/g", st)
//
// Run never returns an error. Execution failures end up on the status
// surface; parse failures that cannot be delegated are only logged.
//
// Session layers interactive editing on top of an Engine: typed text, caret
// movement, history browsing and Tab completion.
package cmdline
