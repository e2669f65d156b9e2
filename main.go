package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joyride-robotics/joyride/internal/api"
	"github.com/joyride-robotics/joyride/internal/board"
	"github.com/joyride-robotics/joyride/internal/config"
	"github.com/joyride-robotics/joyride/internal/control"
	"github.com/joyride-robotics/joyride/internal/drive"
	"github.com/joyride-robotics/joyride/internal/robot"
	"github.com/joyride-robotics/joyride/internal/sensor"
	"github.com/joyride-robotics/joyride/internal/version"
	"github.com/joyride-robotics/joyride/internal/watchdog"
)

var (
	listen       = flag.String("listen", ":9999", "Command protocol listen address")
	debugListen  = flag.String("debug-listen", "", "HTTP status/debug listen address (off when empty)")
	driverName   = flag.String("driver", "sabertooth", "Motor driver backend (see -list-drivers)")
	serialPath   = flag.String("serial", "/dev/ttyUSB0", "Board serial port path")
	baud         = flag.Int("baud", 115200, "Board serial baud rate")
	devMode      = flag.Bool("dev", false, "Use a mock board fed from fixtures.txt")
	disableBoard = flag.Bool("disable-board", false, "Run without a board connection")
	leftSerial   = flag.String("left", "", "Left SMC controller serial number")
	rightSerial  = flag.String("right", "", "Right SMC controller serial number")
	smcCmdPath   = flag.String("smccmd", "SmcCmd", "Path to the Pololu SmcCmd utility")
	configPath   = flag.String("config", "", "Optional JSON file overriding watchdog parameters")
	listDrivers  = flag.Bool("list-drivers", false, "List available motor drivers and exit")
)

const fixturesFile = "fixtures.txt"

// buildBoard picks the board connection for the given mode flags.
func buildBoard(disabled, dev bool, serialPath string, baud int) (board.Conn, error) {
	if disabled {
		return board.NewDisabledMux(), nil
	}
	if dev {
		data, err := os.ReadFile(fixturesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open fixtures file: %w", err)
		}
		return board.NewMockMux(data), nil
	}
	return board.NewRealMux(serialPath, board.PortOptions{BaudRate: baud})
}

func main() {
	flag.Parse()

	if *listDrivers {
		for _, line := range drive.List() {
			fmt.Println(line)
		}
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Printf("joyride server %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	conn, err := buildBoard(*disableBoard, *devMode, *serialPath, *baud)
	if err != nil {
		log.Fatalf("failed to connect to board: %v", err)
	}

	driver, err := drive.New(*driverName, drive.Config{
		Board:       conn,
		LeftSerial:  *leftSerial,
		RightSerial: *rightSerial,
		SmcCmdPath:  *smcCmdPath,
	})
	if err != nil {
		log.Fatalf("failed to build %s driver: %v", *driverName, err)
	}

	rob := robot.New(driver, conn, sensor.Defaults(conn, nil), nil)

	// A robot that cannot reach a known idle state must not serve clients.
	if err := rob.Reset(); err != nil {
		log.Fatalf("failed to reset robot at startup: %v", err)
	}

	params := watchdog.DefaultParams()
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		params = cfg.ApplyWatchdog(params)
	}

	srv := control.NewServer(rob, nil, nil)
	mon := watchdog.New(rob, srv, params, nil)
	srv.SetMonitor(mon)

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", *listen, err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// command protocol acceptor
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("command server listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil {
			log.Printf("command server failed: %v", err)
		}
		log.Print("command server terminated")
	}()

	// watchdog loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		mon.Run(ctx)
		log.Print("watchdog terminated")
	}()

	// a client shutdown command stops the whole process
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
		case <-srv.ShutdownRequested():
			log.Print("shutdown requested by client")
			stop()
		}
	}()

	// HTTP status/debug server goroutine
	if *debugListen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()

			mux := api.NewServer(rob, mon).ServeMux()
			server := &http.Server{
				Addr:    *debugListen,
				Handler: api.LoggingMiddleware(mux),
			}

			go func() {
				log.Printf("debug server listening on %s", *debugListen)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("failed to start debug server: %v", err)
				}
			}()

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("debug server shutdown error: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Print("shutting down...")

	srv.Shutdown()
	wg.Wait()
	if err := rob.Shutdown(); err != nil {
		log.Printf("robot shutdown error: %v", err)
	}
	log.Print("server stopped")
}
