package chatbot

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"StreamChat/internal/session"
)

var (
	userPrompt  = color.New(color.FgCyan, color.Bold)
	modelPrompt = color.New(color.FgMagenta, color.Bold)
	errorText   = color.New(color.FgRed)
	dimText     = color.New(color.Faint)
)

// runREPL is the line-mode interface: one prompt per line, replies printed as
// they stream in.
func (cb *ChatBot) runREPL(ctx context.Context) error {
	fmt.Fprintln(cb.out, "=== StreamChat ===")
	fmt.Fprintf(cb.out, "Backend: %s\n", cb.config.Backend)
	fmt.Fprintln(cb.out, "Type /help for commands, /quit to exit")
	fmt.Fprintln(cb.out)

	scanner := bufio.NewScanner(cb.in)

	for {
		userPrompt.Fprint(cb.out, "You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(ctx, input)
			if err != nil {
				errorText.Fprintf(cb.out, "Error: %v\n", err)
				cb.logger.Error("command error", "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		cb.streamReply(ctx, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprintln(cb.out, "Goodbye!")
	return nil
}

// streamReply submits input and echoes the reply as it grows
func (cb *ChatBot) streamReply(ctx context.Context, input string) {
	changes := cb.controller.Changes()
	drain(changes)
	done := make(chan error, 1)
	go func() {
		done <- cb.controller.Submit(ctx, input)
	}()

	modelPrompt.Fprint(cb.out, "Bot: ")
	printed := ""
	for {
		select {
		case <-changes:
			printed = cb.printReplyDelta(printed)
		case err := <-done:
			printed = cb.printReplyDelta(printed)
			if err != nil {
				errorText.Fprintf(cb.out, "Error: %v", err)
			}
			fmt.Fprint(cb.out, "\n\n")
			return
		}
	}
}

// drain discards a pending change signal left over from an earlier command
func drain(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// printReplyDelta prints whatever the active reply gained since printed.
// A reply that was replaced rather than extended is printed on a new line.
func (cb *ChatBot) printReplyDelta(printed string) string {
	msgs := cb.controller.Snapshot().Messages()
	if len(msgs) == 0 {
		return printed
	}
	reply := msgs[len(msgs)-1]
	if reply.Role != session.RoleModel || reply.Content == printed {
		return printed
	}
	if strings.HasPrefix(reply.Content, printed) {
		fmt.Fprint(cb.out, reply.Content[len(printed):])
	} else {
		fmt.Fprint(cb.out, "\n")
		errorText.Fprint(cb.out, reply.Content)
	}
	return reply.Content
}

// handleCommand handles special commands
func (cb *ChatBot) handleCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new":
		cb.controller.NewSession()
		fmt.Fprintln(cb.out, "Started a new chat")
		return false, nil

	case "/list":
		cb.printSessions()
		return false, nil

	case "/select":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /select <number|id>")
		}
		sess, err := cb.resolveSession(parts[1])
		if err != nil {
			return false, err
		}
		cb.controller.SelectSession(sess.ID)
		fmt.Fprintf(cb.out, "Switched to %q\n", sess.Title)
		for _, msg := range sess.Messages {
			prompt := userPrompt
			label := "You: "
			if msg.Role == session.RoleModel {
				prompt, label = modelPrompt, "Bot: "
			}
			prompt.Fprint(cb.out, label)
			fmt.Fprintln(cb.out, msg.Content)
		}
		return false, nil

	case "/delete":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /delete <number|id>")
		}
		sess, err := cb.resolveSession(parts[1])
		if err != nil {
			return false, err
		}
		cb.controller.DeleteSession(sess.ID)
		fmt.Fprintf(cb.out, "Deleted %q\n", sess.Title)
		return false, nil

	case "/models":
		if cb.models == nil {
			return false, fmt.Errorf("model listing is only available for the ollama backend")
		}
		models, err := cb.models.ListModels(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to list Ollama models: %w", err)
		}
		fmt.Fprintln(cb.out, "\nAvailable Ollama models:")
		for i, model := range models {
			sizeGB := float64(model.Size) / (1024 * 1024 * 1024)
			fmt.Fprintf(cb.out, "%d. %s - %.2f GB\n", i+1, model.Name, sizeGB)
		}
		fmt.Fprintln(cb.out)
		return false, nil

	case "/help":
		fmt.Fprintln(cb.out, "Available commands:")
		fmt.Fprintln(cb.out, "  /quit, /exit          - Exit")
		fmt.Fprintln(cb.out, "  /new                  - Start a new chat")
		fmt.Fprintln(cb.out, "  /list                 - List chats, newest first")
		fmt.Fprintln(cb.out, "  /select <number|id>   - Open a chat")
		fmt.Fprintln(cb.out, "  /delete <number|id>   - Delete a chat")
		if cb.models != nil {
			fmt.Fprintln(cb.out, "  /models               - List available Ollama models")
		}
		fmt.Fprintln(cb.out, "  /help                 - Show this help message")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (try /help)", parts[0])
	}
}

func (cb *ChatBot) printSessions() {
	snap := cb.controller.Snapshot()
	if len(snap.Sessions) == 0 {
		fmt.Fprintln(cb.out, "No chats yet.")
		return
	}
	for i, sess := range snap.Sessions {
		marker := " "
		if sess.ID == snap.ActiveID {
			marker = "*"
		}
		fmt.Fprintf(cb.out, "%s %d. %s ", marker, i+1, sess.Title)
		dimText.Fprintf(cb.out, "(%d messages, %s)\n", len(sess.Messages), sess.LastUpdated.Format("Jan 2 15:04"))
	}
}

// resolveSession accepts a 1-based position from /list or a session id
func (cb *ChatBot) resolveSession(ref string) (session.Session, error) {
	sessions := cb.controller.Snapshot().Sessions
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(sessions) {
			return session.Session{}, fmt.Errorf("no chat number %d", n)
		}
		return sessions[n-1], nil
	}
	for _, sess := range sessions {
		if sess.ID == ref {
			return sess, nil
		}
	}
	return session.Session{}, fmt.Errorf("no chat with id %s", ref)
}
