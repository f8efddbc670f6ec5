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

// Command splash-world runs the controller Root: it owns the master
// config, accepts Scene connections, and serves the HTTP control plane.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/spf13/afero"

	cliutil "github.com/splash-engine/splash/cli/util"
	"github.com/splash-engine/splash/link"
	"github.com/splash-engine/splash/recwatch"
	"github.com/splash-engine/splash/root"
	"github.com/splash-engine/splash/telemetry"
	"github.com/splash-engine/splash/util"
)

var (
	program = "splash-world"
	version = "0.0.1"
)

type args struct {
	Config  string `arg:"--config" default:"/etc/splash/world.json" help:"path to the JSON config file"`
	Listen  string `arg:"--listen" default:"0.0.0.0:7070" help:"address for incoming Scene Links"`
	HTTP    string `arg:"--http" default:"127.0.0.1:7080" help:"address for the HTTP control plane"`
	Metrics string `arg:"--metrics" default:"" help:"address for the Prometheus /metrics endpoint"`
	Watch   bool   `arg:"--watch" help:"hot-reload the config file whenever it changes on disk"`
	Debug   bool   `arg:"--debug" help:"add additional log messages"`
}

func (args) Description() string {
	return "Splash controller: owns the master scene config and coordinates Scenes."
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

	logf := func(format string, v ...interface{}) { fmt.Fprintf(os.Stderr, "world: "+format+"\n", v...) }

	dir := filepath.Dir(cliArgs.Config)
	base := filepath.Base(cliArgs.Config)
	fs := &util.Fs{Afero: &afero.Afero{Fs: util.NewRelPathFs(afero.NewOsFs(), dir)}}
	logf("world: config filesystem rooted at %s", fs.URI())

	w := root.NewWorld(8, fs, base)
	w.Logf = logf

	if err := w.LoadConfig(); err != nil {
		logf("no config loaded (%v), starting empty", err)
	}
	if cliArgs.Debug {
		if tree, err := util.FsTree(fs, "/"); err == nil {
			logf("world: config directory contents:\n%s", tree)
		}
		logf("world: tree snapshot:\n%s", w.DumpTree())
	}

	var configWatcher *recwatch.ConfigWatcher
	if cliArgs.Watch {
		configWatcher = recwatch.NewConfigWatcher()
		configWatcher.Flags = recwatch.Flags{Debug: cliArgs.Debug}
		configWatcher.Add(cliArgs.Config)
		go watchConfig(configWatcher, w, logf)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cliArgs.Metrics != "" {
		tel := telemetry.New(cliArgs.Metrics)
		if err := tel.Start(ctx); err != nil {
			logf("telemetry: %v", err)
		}
	}

	httpServer := &http.Server{
		Addr:     cliArgs.HTTP,
		Handler:  w.Handler(),
		ErrorLog: log.New(&util.LogWriter{Prefix: "world: http: ", Logf: logf}, "", 0),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logf("http: %v", err)
		}
	}()

	listener, err := net.Listen("tcp", cliArgs.Listen)
	if err != nil {
		logf("listen: %v", err)
		return 1
	}
	go acceptScenes(ctx, listener, w, logf)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	closeCh := make(chan struct{})
	go func() { <-sigCh; close(closeCh) }()
	shutdownCtx, shutdownCancel := util.ContextWithCloser(ctx, closeCh)
	defer shutdownCancel()
	<-shutdownCtx.Done()

	cancel()
	_ = listener.Close()
	_ = httpServer.Shutdown(context.Background())
	if configWatcher != nil {
		configWatcher.Close()
	}
	if err := w.SaveConfig(); err != nil {
		logf("save config on exit: %v", err)
	}
	return 0
}

// watchConfig reloads w's config every time cw reports a change to the file
// it's watching, until cw is closed or reports its first error.
func watchConfig(cw *recwatch.ConfigWatcher, w *root.World, logf func(string, ...interface{})) {
	for {
		select {
		case _, ok := <-cw.Events():
			if !ok {
				return
			}
			logf("config file changed, reloading")
			if err := w.LoadConfig(); err != nil {
				logf("reload config: %v", err)
			}
		case err, ok := <-cw.Error():
			if !ok {
				return
			}
			logf("config watch: %v", err)
			return
		}
	}
}

func acceptScenes(ctx context.Context, listener net.Listener, w *root.World, logf func(string, ...interface{})) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			logf("accept: %v", err)
			return
		}
		peerName := conn.RemoteAddr().String()
		l := link.New(conn)
		w.AddLink(peerName, l)
		l.OnBuffer = func(b link.Buffer) {
			if b.Target != "__seeds__" {
				return
			}
			if _, err := w.ReceiveSeedBatch(b.Bytes); err != nil {
				logf("seed batch from %s: %v", peerName, err)
			}
		}
		l.OnMessage = func(msg link.Message) {
			if msg.Attribute != "answerMessage" || len(msg.Args) < 2 {
				return
			}
			path := "/scenes/" + peerName + "/" + msg.Args[0].String()
			w.ForwardTelemetry(path, msg.Args[1])
		}
	}
}
