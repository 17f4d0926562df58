package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"chatgogo/store/internal/app"
	"chatgogo/store/internal/chathub"
	"chatgogo/store/internal/config"
	"chatgogo/store/internal/roomstore"
)

const usage = `Usage: admin <command> [args]

Commands:
  users                                 list users
  rooms                                 list all rooms
  reset                                 restore seed users, delete all rooms
  create-account <id> <name> [status]   add a user
  create-room <as> <name @id @id...>    create a room as user <as>
  invite <as> <room_id> <id>...         invite users into a room
  send <as> <room_id> <text>...         post a message`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.DefaultUser = "" // the CLI acts as the user named per command

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer a.Close()

	if err := run(ctx, a.Hub, os.Args[1], os.Args[2:]); err != nil {
		a.Close()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, hub *chathub.Manager, command string, args []string) error {
	switch command {
	case "users":
		for _, u := range hub.ListUsers() {
			fmt.Printf("%-16s %-12s %-24s %s\n", u.UserID, u.UserName, u.StatusMsg, u.LastActiveLabel)
		}
	case "rooms":
		listRooms(hub)
	case "reset":
		if err := hub.Reset(ctx); err != nil {
			return err
		}
		fmt.Println("Store has been reset.")
	case "create-account":
		if len(args) < 2 {
			return fmt.Errorf("usage: admin create-account <id> <name> [status]")
		}
		status := strings.Join(args[2:], " ")
		if _, err := hub.CreateAccount(ctx, args[0], args[1], status); err != nil {
			return err
		}
		fmt.Printf("User %s has been created.\n", args[0])
	case "create-room":
		if len(args) < 2 {
			return fmt.Errorf("usage: admin create-room <as> <name @id @id...>")
		}
		if err := hub.Login(ctx, args[0]); err != nil {
			return err
		}
		name, ids := chathub.ParseRoomQuery(strings.Join(args[1:], " "))
		id, err := hub.CreateRoom(ctx, name, ids)
		if err != nil {
			return err
		}
		fmt.Printf("Room %d has been created.\n", id)
	case "invite":
		if len(args) < 3 {
			return fmt.Errorf("usage: admin invite <as> <room_id> <id>...")
		}
		roomID, err := loginAndParse(ctx, hub, args[0], args[1])
		if err != nil {
			return err
		}
		if err := hub.Invite(ctx, roomID, args[2:]); err != nil {
			return err
		}
		fmt.Printf("Invited %s to room %d.\n", strings.Join(args[2:], ", "), roomID)
	case "send":
		if len(args) < 3 {
			return fmt.Errorf("usage: admin send <as> <room_id> <text>...")
		}
		roomID, err := loginAndParse(ctx, hub, args[0], args[1])
		if err != nil {
			return err
		}
		chat, err := hub.Send(ctx, roomID, strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("Message %d sent.\n", chat.ChatID)
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func loginAndParse(ctx context.Context, hub *chathub.Manager, userID, rawRoomID string) (int64, error) {
	roomID, err := roomstore.ParseRoomID(rawRoomID)
	if err != nil {
		return 0, err
	}
	return roomID, hub.Login(ctx, userID)
}

func listRooms(hub *chathub.Manager) {
	for _, r := range hub.Rooms.List() {
		ids := make([]string, 0, len(r.Participants))
		for _, ref := range r.Participants {
			if u, ok := hub.Users.Resolve(ref); ok {
				ids = append(ids, u.UserID)
			}
		}
		fmt.Printf("%d  %-24s %3d chats  [%s]\n", r.RoomID, r.RoomName, len(r.Chats), strings.Join(ids, ", "))
	}
}
