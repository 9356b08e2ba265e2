package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"confession-client/internal/client"
	"confession-client/internal/game"
	"confession-client/internal/identity"
)

// run wires the client together and drives it from stdin until the context
// is cancelled or the user quits. Everything printed here is a read-only
// projection of the machine's snapshot; the snapshot itself is mutated only
// by inbound events.
func run(parent context.Context, cfg *Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	statePath := cfg.stateFile
	if statePath == "" {
		var err error
		statePath, err = identity.DefaultPath()
		if err != nil {
			return err
		}
	}
	playerID, err := identity.LoadOrCreate(statePath)
	if err != nil {
		return err
	}
	logf(cfg, "player id %s (from %s)", playerID, statePath)

	emitter := client.NewEmitter()
	conn := client.NewConnection(cfg.serverURL, emitter)
	machine := game.NewMachine()
	machine.Register(emitter)
	actions := game.NewActions(conn, machine)

	registerPrinters(cfg, emitter, machine)

	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer conn.Disconnect()

	if err := actions.JoinRoom(ctx, cfg.room, playerID, cfg.name); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println("commands: /start /chat <msg> /confess <msg> /explain <id> <text> /vote yes|no /pick <player-id> /who /reconnect /leave /quit")

	for {
		select {
		case <-ctx.Done():
			leaveIfJoined(actions, machine)
			return nil

		case line, ok := <-lines:
			if !ok {
				leaveIfJoined(actions, machine)
				return nil
			}
			quit, err := handleCommand(ctx, cfg, line, conn, actions, machine, playerID)
			if err != nil {
				log.Printf("rejected: %v", err)
			}
			if quit {
				leaveIfJoined(actions, machine)
				return nil
			}
		}
	}
}

func handleCommand(ctx context.Context, cfg *Config, line string, conn *client.Connection, actions *game.Actions, machine *game.Machine, playerID string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "/start":
		return false, actions.StartGame(ctx)

	case "/chat":
		return false, actions.SendChat(ctx, rest)

	case "/confess":
		return false, actions.SendConfession(ctx, rest)

	case "/explain":
		id, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
		return false, actions.SendExplanation(ctx, id, text)

	case "/vote":
		switch strings.TrimSpace(rest) {
		case "yes", "y":
			return false, actions.CastVote(ctx, true)
		case "no", "n":
			return false, actions.CastVote(ctx, false)
		default:
			return false, errors.New("usage: /vote yes|no")
		}

	case "/pick":
		return false, actions.SelectNextTarget(ctx, strings.TrimSpace(rest))

	case "/who":
		printRoster(machine.Snapshot())
		return false, nil

	case "/reconnect":
		if err := conn.Connect(ctx); err != nil {
			return false, err
		}
		// Re-joining restores the server's room snapshot.
		return false, actions.JoinRoom(ctx, cfg.room, playerID, cfg.name)

	case "/leave":
		return false, actions.LeaveRoom(ctx)

	case "/quit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
}

func leaveIfJoined(actions *game.Actions, machine *game.Machine) {
	if machine.Snapshot().Phase != game.PhaseJoin {
		_ = actions.LeaveRoom(context.Background())
	}
}

func printRoster(snap game.Snapshot) {
	fmt.Printf("room %s (%s)\n", snap.RoomID, snap.Phase)
	for i, p := range snap.Players {
		marks := ""
		if i == 0 {
			marks += " [host]"
		}
		if p.ID == snap.CurrentTarget {
			marks += " [target]"
		}
		if p.ID == snap.PlayerID {
			marks += " [you]"
		}
		fmt.Printf("  %s  %s%s\n", p.ID, p.Name, marks)
	}
}

// registerPrinters subscribes print-only handlers next to the machine's.
// They share the emitter, so dispatch order guarantees the machine has
// already applied each event by the time its line is printed.
func registerPrinters(cfg *Config, emitter *client.Emitter, machine *game.Machine) {
	emitter.On(client.EventConnect, func(json.RawMessage) {
		fmt.Println("* connected")
	})
	emitter.On(client.EventDisconnect, func(json.RawMessage) {
		fmt.Println("* connection lost; use /reconnect to resume")
	})
	onPrint(emitter, client.KindJoinRoomSuccess, func(p client.JoinRoomSuccess) {
		snap := machine.Snapshot()
		fmt.Printf("* joined room %s as %s\n", snap.RoomID, snap.PlayerName)
		printRoster(snap)
		if cfg.showQR {
			printRoomQR(snap.RoomID)
		}
	})
	onPrint(emitter, client.KindPlayerListUpdated, func(p client.PlayerListUpdated) {
		printRoster(machine.Snapshot())
	})
	onPrint(emitter, client.KindGameStarted, func(p client.GameStarted) {
		snap := machine.Snapshot()
		fmt.Printf("* game started, target is %s\n", snap.NameOf(p.Target))
		if snap.IsTarget() {
			fmt.Println("* you are the target: wait for confessions, then /explain them")
		}
	})
	onPrint(emitter, client.KindChatMessage, func(p client.ChatMessage) {
		fmt.Printf("[chat] %s: %s\n", p.SenderName, p.Message)
	})
	onPrint(emitter, client.KindConfessionReceived, func(p client.ConfessionReceived) {
		fmt.Printf("[confession %s] %s\n", p.ID, p.Message)
	})
	onPrint(emitter, client.KindConfessionSent, func(p client.ConfessionSent) {
		logf(cfg, "confession %s delivered to the target", p.ConfessionID)
	})
	onPrint(emitter, client.KindExplanationReceived, func(p client.ExplanationReceived) {
		fmt.Printf("[explanation for %s] %s\n", p.ConfessionID, p.Explanation)
	})
	onPrint(emitter, client.KindVoteUpdated, func(p client.VoteUpdated) {
		fmt.Printf("* votes: %d/%d\n", p.Votes, p.Required)
	})
	onPrint(emitter, client.KindVoteComplete, func(p client.VoteComplete) {
		if !p.AllAgree {
			fmt.Println("* vote complete: no consensus")
			return
		}
		if machine.Snapshot().IsTarget() {
			fmt.Println("* vote complete: pick the next target with /pick <player-id>")
		} else {
			fmt.Println("* vote complete: waiting for the target to pick")
		}
	})
	onPrint(emitter, client.KindNewTargetSelected, func(p client.NewTargetSelected) {
		snap := machine.Snapshot()
		fmt.Printf("* new target: %s\n", snap.NameOf(p.Target))
	})
	onPrint(emitter, client.KindGameReset, func(p client.GameReset) {
		fmt.Printf("* game reset: %s\n", p.Message)
	})
	onPrint(emitter, client.KindError, func(p client.ErrorMessage) {
		fmt.Printf("! %s\n", p.Message)
	})
}

func onPrint[T any](emitter *client.Emitter, kind string, print func(T)) {
	emitter.On(kind, func(data json.RawMessage) {
		var payload T
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
		print(payload)
	})
}
