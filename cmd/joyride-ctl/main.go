// joyride-ctl is a small line client for the robot command protocol. It
// sends the command given on the command line, or reads commands from
// stdin when none is given, and prints each framed response.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/joyride-robotics/joyride/internal/control"
)

var addr = flag.String("addr", "localhost:9999", "Robot server address")

func main() {
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *addr, err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	if args := flag.Args(); len(args) > 0 {
		if err := send(conn, reader, strings.Join(args, " ")); err != nil {
			log.Fatal(err)
		}
		return
	}

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		if err := send(conn, reader, stdin.Text()); err != nil {
			log.Fatal(err)
		}
	}
}

func send(conn net.Conn, reader *bufio.Reader, line string) error {
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	resp, err := control.ReadFrame(reader)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}

	switch output := resp.Output.(type) {
	case string:
		fmt.Printf("%s: %s\n", resp.Result, output)
	default:
		pretty, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n%s\n", resp.Result, pretty)
	}
	return nil
}
