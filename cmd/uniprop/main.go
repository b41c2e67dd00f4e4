// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// uniprop reads Unicode Character Database property files and writes them
// out as compact lookup tables: JavaScript (or any other template) with the
// packed entries embedded as base64, or a packed table file for Go
// programs to open with uniprop.Open.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/scott-cotton/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cli.MainContext(ctx, MainCommand(ctx))
}
