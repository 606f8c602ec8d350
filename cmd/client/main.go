package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"dm-lab/domain"
	"dm-lab/notification"
)

// Terminal client: logs in over REST, follows the event feed over
// WebSocket and keeps an unread tracker for conversations not on screen.
func main() {
	server := flag.String("server", "http://localhost:8080", "Server base URL")
	username := flag.String("user", "", "Username")
	password := flag.String("pass", "", "Password")
	register := flag.Bool("register", false, "Register instead of logging in")
	displayName := flag.String("name", "", "Display name (registration only)")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("Both -user and -pass are required")
	}

	api := newAPIClient(*server)

	var session authResponse
	var err error
	if *register {
		session, err = api.Register(*username, *displayName, *password)
	} else {
		session, err = api.Login(*username, *password)
	}
	if err != nil {
		log.Fatalf("Authentication failed: %v", err)
	}
	color.Green.Printf("Connected as %s\n", session.User.Username)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *server+"/ws?token="+api.token, nil)
	if err != nil {
		log.Fatalf("WebSocket connection failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	tracker := notification.NewTracker()
	current := &currentConversation{}

	go feed(ctx, conn, tracker, current)

	printHelp()
	repl(ctx, api, conn, tracker, current)
}

// currentConversation is the conversation on screen, shared between the
// REPL and the feed goroutine.
type currentConversation struct {
	mu sync.Mutex
	id string
}

func (c *currentConversation) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *currentConversation) set(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// wsFrame mirrors the server's event envelope. Data stays raw until the
// channel name tells us what it holds.
type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// feed consumes the event stream. Messages for the open conversation are
// printed inline; everything else lands in the unread tracker.
func feed(ctx context.Context, conn *websocket.Conn, tracker *notification.Tracker, current *currentConversation) {
	for {
		var frame wsFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if ctx.Err() == nil {
				color.Red.Println("\nConnection lost")
			}
			return
		}

		switch {
		case strings.HasPrefix(frame.Type, "new-message-"):
			var msg messageDTO
			if json.Unmarshal(frame.Data, &msg) != nil {
				continue
			}
			if msg.ConversationID == current.get() {
				printMessage(msg)
			}
		case strings.HasPrefix(frame.Type, "new-notification-"):
			var msg messageDTO
			if json.Unmarshal(frame.Data, &msg) != nil {
				continue
			}
			if tracker.Record(toDomainMessage(msg)) {
				color.Yellow.Printf("\n[%s] unread from %s (%d pending)\n",
					shortID(msg.ConversationID), msg.AuthorUsername, tracker.Count())
			}
		case strings.HasPrefix(frame.Type, "new-conversation-"):
			color.Cyan.Println("\nConversation list updated, /list to refresh")
		}
	}
}

func repl(ctx context.Context, api *apiClient, conn *websocket.Conn,
	tracker *notification.Tracker, current *currentConversation) {

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			open := current.get()
			if open == "" {
				color.Red.Println("No conversation open, use /open <id>")
				continue
			}
			if _, err := api.SendMessage(open, line); err != nil {
				color.Red.Printf("Send failed: %v\n", err)
			}
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/quit":
			return
		case "/help":
			printHelp()
		case "/list":
			listConversations(api, tracker)
		case "/open":
			if len(fields) < 2 {
				color.Red.Println("Usage: /open <conversation-id>")
				continue
			}
			openConversation(ctx, api, conn, tracker, current, fields[1])
		case "/close":
			current.set("")
			tracker.SetViewing("")
			_ = sendFocus(ctx, conn, "")
		case "/new":
			if len(fields) < 2 {
				color.Red.Println("Usage: /new DIRECT|GROUP|SELF [participant-id...]")
				continue
			}
			conv, err := api.CreateConversation(strings.ToUpper(fields[1]), fields[2:])
			if err != nil {
				color.Red.Printf("Create failed: %v\n", err)
				continue
			}
			color.Green.Printf("Created %s\n", conv.ID)
		case "/search":
			if len(fields) < 2 {
				color.Red.Println("Usage: /search <query>")
				continue
			}
			searchUsers(api, strings.Join(fields[1:], " "))
		case "/unread":
			printUnread(tracker)
		case "/ack":
			if len(fields) < 2 {
				color.Red.Println("Usage: /ack <message-id>")
				continue
			}
			tracker.Acknowledge(fields[1])
		default:
			color.Red.Printf("Unknown command %s\n", fields[0])
		}
	}
}

// openConversation declares focus on both sides: the server stops raising
// notifications for it, the tracker clears and suppresses local ones.
func openConversation(ctx context.Context, api *apiClient, conn *websocket.Conn,
	tracker *notification.Tracker, current *currentConversation, id string) {

	messages, err := api.Messages(id, 20)
	if err != nil {
		color.Red.Printf("Open failed: %v\n", err)
		return
	}

	current.set(id)
	tracker.SetViewing(id)
	if err := sendFocus(ctx, conn, id); err != nil {
		color.Red.Printf("Focus failed: %v\n", err)
	}

	color.Cyan.Printf("--- %s ---\n", id)
	for _, msg := range messages {
		printMessage(msg)
	}
}

func sendFocus(ctx context.Context, conn *websocket.Conn, conversationID string) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, conn, map[string]string{
		"type":            "focus",
		"conversation_id": conversationID,
	})
}

func listConversations(api *apiClient, tracker *notification.Tracker) {
	conversations, err := api.Conversations()
	if err != nil {
		color.Red.Printf("List failed: %v\n", err)
		return
	}
	unread := tracker.Unread()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Type", "Recipients", "Unread", "Updated"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")

	for _, conv := range conversations {
		var names []string
		for _, r := range conv.Recipients {
			names = append(names, r.Username)
		}
		table.Append([]string{
			conv.ID,
			conv.Type,
			strings.Join(names, ", "),
			fmt.Sprintf("%d", unread[conv.ID]),
			conv.UpdatedAt,
		})
	}
	table.Render()
}

func searchUsers(api *apiClient, query string) {
	users, err := api.SearchUsers(query)
	if err != nil {
		color.Red.Printf("Search failed: %v\n", err)
		return
	}
	for _, u := range users {
		fmt.Printf("%s  %s  %s\n", u.ID, u.Username, u.DisplayName)
	}
}

func printUnread(tracker *notification.Tracker) {
	counts := tracker.Unread()
	if len(counts) == 0 {
		fmt.Println("Nothing unread")
		return
	}
	for conversationID, count := range counts {
		color.Yellow.Printf("%s: %d\n", conversationID, count)
		for _, msg := range tracker.UnreadByConversation(conversationID) {
			fmt.Printf("  [%s] %s: %s\n", msg.ID, msg.AuthorUsername, msg.Content)
		}
	}
}

func printMessage(msg messageDTO) {
	author := msg.AuthorDisplayName
	if author == "" {
		author = msg.AuthorUsername
	}
	fmt.Printf("%s %s: %s\n", color.Gray.Render(msg.CreatedAt), color.Green.Render(author), msg.Content)
}

func toDomainMessage(msg messageDTO) domain.Message {
	created, _ := time.Parse("2006-01-02T15:04:05.000Z07:00", msg.CreatedAt)
	return domain.Message{
		ID:                msg.ID,
		ConversationID:    msg.ConversationID,
		AuthorID:          msg.AuthorID,
		AuthorUsername:    msg.AuthorUsername,
		AuthorDisplayName: msg.AuthorDisplayName,
		Content:           msg.Content,
		CreatedAt:         created,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printHelp() {
	fmt.Println(`Commands:
  /list                     show conversations
  /open <id>                open a conversation (marks it read)
  /close                    leave the open conversation
  /new <TYPE> [user-id...]  create DIRECT, GROUP or SELF conversation
  /search <query>           find users
  /unread                   pending notifications
  /ack <message-id>         dismiss one notification
  /quit                     exit
Anything else is sent to the open conversation.`)
}
