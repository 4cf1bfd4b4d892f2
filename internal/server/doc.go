// Package server assembles the agent and serves it.
//
// Runtime wires the components in dependency order:
//  1. Settings store and language-model manager
//  2. Page automation (Chromium over CDP) and the embedded script check
//  3. Page context extractor, element resolver and action dispatcher
//  4. Intent parser, workflow planner and workflow controller
//  5. Step journal
//
// Server puts the HTTP API and the websocket endpoint in front of a
// Runtime and shuts both down in reverse order.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	rt, err := server.NewRuntime(ctx, cfg, logger)
//	srv := server.New(rt)
//	err = srv.Run(ctx)
package server
