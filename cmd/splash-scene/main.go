// Splash
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command splash-scene runs a renderer Root: it connects to a World,
// replicates the shared Tree, and drives a render loop (a no-op stub in
// this repository; a real GL/Vulkan backend is out of scope, see §1).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"

	cliutil "github.com/splash-engine/splash/cli/util"
	"github.com/splash-engine/splash/link"
	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/root"
	"github.com/splash-engine/splash/telemetry"
	"github.com/splash-engine/splash/util"
)

var (
	program = "splash-scene"
	version = "0.0.1"
)

type args struct {
	Connect string `arg:"--connect,required" help:"World address to connect to, host:port"`
	Master  bool   `arg:"--master" help:"run as the master Scene (controls frame pacing)"`
	Metrics string `arg:"--metrics" default:"" help:"address for the Prometheus /metrics endpoint"`
	Debug   bool   `arg:"--debug" help:"add additional log messages"`
}

func (args) Description() string {
	return "Splash renderer: connects to a World and drives the render loop."
}

func main() {
	os.Exit(mainFn())
}

func mainFn() int {
	var cliArgs args
	parser, err := arg.NewParser(arg.Config{Program: cliutil.SafeProgram(program)}, &cliArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: arg parser: %v\n", program, err)
		return 1
	}
	if err := parser.Parse(os.Args[1:]); err != nil {
		if err == arg.ErrHelp {
			parser.WriteHelp(os.Stdout)
			return 0
		}
		if err == arg.ErrVersion {
			fmt.Println(version)
			return 0
		}
		fmt.Fprintln(os.Stderr, cliutil.CliParseError(err))
		return 1
	}

	cliutil.Hello(program, version, cliutil.Flags{Debug: cliArgs.Debug})

	logf := func(format string, v ...interface{}) { fmt.Fprintf(os.Stderr, "scene: "+format+"\n", v...) }

	scene := root.NewScene(8, root.NoOpRenderLoop{}, cliArgs.Master)
	scene.Logf = logf
	scene.WatchObjectLifecycle()

	conn, err := link.ConnectTo(cliArgs.Connect)
	if err != nil {
		logf("connect to %s: %v", cliArgs.Connect, err)
		return 1
	}
	scene.ConnectToWorld("world", conn)
	conn.OnMessage = func(msg link.Message) {
		scene.Set(msg.Target, msg.Attribute, msg.Args, false)
	}
	conn.OnBuffer = func(b link.Buffer) {
		if b.Target == "__seeds__" {
			if _, err := scene.ReceiveSeedBatch(b.Bytes); err != nil {
				logf("seed batch: %v", err)
			}
			return
		}
		if !scene.ReceiveBuffer(b.Target, b.Bytes, object.Now()) {
			logf("buffer for unknown target %q dropped", b.Target)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cliArgs.Metrics != "" {
		tel := telemetry.New(cliArgs.Metrics)
		if err := tel.Start(ctx); err != nil {
			logf("telemetry: %v", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	closeCh := make(chan struct{})
	go func() { <-sigCh; close(closeCh) }()
	shutdownCtx, shutdownCancel := util.ContextWithCloser(ctx, closeCh)
	defer shutdownCancel()

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-shutdownCtx.Done():
			cancel()
			_ = conn.Close()
			return 0
		case <-ticker.C:
			scene.RunTasks()
			if err := scene.RenderOneFrame(); err != nil {
				logf("render: %v", err)
			}
		}
	}
}
