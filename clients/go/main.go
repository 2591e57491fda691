// NeuroVibe CLI - command line client for NeuroVibe rooms
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Akshay-cybersec/NeuroVibe/clients/go/neurovibe"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("NEUROVIBE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	client := neurovibe.NewClient(baseURL)
	client.Token = os.Getenv("NEUROVIBE_TOKEN")

	ctx := context.Background()
	cmd := os.Args[1]

	switch cmd {
	case "guest":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: neurovibe guest <name>")
			os.Exit(1)
		}
		participant, err := client.GuestToken(ctx, os.Args[2])
		exitOnError(err)
		fmt.Printf("Participant: %s (%s)\n", participant.Name, participant.ID)
		fmt.Printf("export NEUROVIBE_TOKEN=%s\n", client.Token)

	case "create":
		code := ""
		if len(os.Args) > 2 {
			code = os.Args[2]
		}
		room, err := client.CreateRoom(ctx, code)
		exitOnError(err)
		fmt.Printf("Room created: %s\n", room.Code)

	case "rooms":
		active, closed, err := client.ListRooms(ctx)
		exitOnError(err)
		for _, room := range active {
			fmt.Printf("  %s  active  %d receivers\n", room.Code, len(room.Receivers))
		}
		for _, room := range closed {
			fmt.Printf("  %s  closed\n", room.Code)
		}

	case "room":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: neurovibe room <code>")
			os.Exit(1)
		}
		room, err := client.GetRoom(ctx, os.Args[2])
		exitOnError(err)
		printJSON(room)

	case "send":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: neurovibe send <code>")
			os.Exit(1)
		}
		runSender(client, os.Args[2])

	case "listen":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: neurovibe listen <code>")
			os.Exit(1)
		}
		runReceiver(client, os.Args[2])

	case "invite":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: neurovibe invite <code> <email>")
			os.Exit(1)
		}
		exitOnError(client.InviteByEmail(ctx, os.Args[2], os.Args[3]))
		fmt.Println("Invitation sent")

	case "invites":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: neurovibe invites <email>")
			os.Exit(1)
		}
		invites, err := client.PendingInvites(ctx, os.Args[2])
		exitOnError(err)
		for _, invite := range invites {
			fmt.Printf("  %s  expires %s\n", invite.RoomCode,
				invite.ExpiresAt.Format(time.RFC3339))
		}

	case "respond":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: neurovibe respond <email> <code> accept|reject")
			os.Exit(1)
		}
		accept := os.Args[4] == "accept"
		exitOnError(client.RespondToInvite(ctx, os.Args[2], os.Args[3], accept))
		fmt.Println("Response recorded")

	case "terminate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: neurovibe terminate <code>")
			os.Exit(1)
		}
		exitOnError(client.TerminateRoom(ctx, os.Args[2]))
		fmt.Println("Room terminated")

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// runSender opens a sender session and forwards each stdin line as a tactile
// signal until EOF or interrupt.
func runSender(client *neurovibe.Client, code string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := startSession(ctx, client, code, "sender", nil)
	defer session.Close()

	fmt.Println("Type a line to send it; Ctrl-D to quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := session.SendText(text); err != nil {
			fmt.Fprintln(os.Stderr, "send:", err)
		}
	}
}

// runReceiver opens a receiver session and renders inbound signals on a
// console actuator until interrupted.
func runReceiver(client *neurovibe.Client, code string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := neurovibe.NewRenderer(consoleActuator{})
	session := startSession(ctx, client, code, "receiver", renderer)
	defer session.Close()

	fmt.Println("Listening; Ctrl-C to quit")
	<-ctx.Done()
}

func startSession(ctx context.Context, client *neurovibe.Client, code, role string, renderer *neurovibe.Renderer) *neurovibe.Session {
	local, err := client.GuestToken(ctx, os.Getenv("NEUROVIBE_NAME"))
	exitOnError(err)

	opts := []neurovibe.SessionOption{}
	if renderer != nil {
		opts = append(opts, neurovibe.WithRenderer(renderer))
	}

	session := neurovibe.NewSession(client, local, opts...)

	if role == "sender" {
		_, err = session.CreateRoom(ctx, code)
	} else {
		_, err = session.JoinRoom(ctx, code)
	}
	exitOnError(err)

	exitOnError(session.SelectRole(ctx, role))

	return session
}

// consoleActuator renders vibration pulses as terminal output so the
// pipeline can be exercised without hardware.
type consoleActuator struct{}

func (consoleActuator) Vibrate(ctx context.Context, duration time.Duration, strength int) error {
	fmt.Printf("bzz %v @%d\n", duration, strength)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(duration):
		return nil
	}
}

func usage() {
	fmt.Println(`NeuroVibe CLI - tactile room communication

Usage: neurovibe <command> [options]

Commands:
  guest <name>                    Mint a guest identity token
  create [code]                   Create a room
  room <code>                     Show a room document
  rooms                           List rooms
  send <code>                     Create a room and send stdin lines as signals
  listen <code>                   Join a room and render inbound signals
  invite <code> <email>           Invite a participant by email
  invites <email>                 List pending invitations
  respond <email> <code> accept|reject
  terminate <code>                Close a room

Environment:
  NEUROVIBE_URL    Server URL (default: http://localhost:3000)
  NEUROVIBE_TOKEN  Bearer token from "guest"
  NEUROVIBE_NAME   Display name for session commands`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
