// Command client is a terminal chat client: it seeds the conversation from
// the history endpoint, joins the websocket feed, and renders the merged view.
// Lines typed on stdin are sent as text messages and shown optimistically
// until the server acks them.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	"lingo-bridge/internal/pkg/chat/application/view"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// wireMessage mirrors the message_payload shape of the HTTP and websocket
// surfaces.
type wireMessage struct {
	ID                 string    `json:"id"`
	ChatID             string    `json:"chat_id"`
	SenderID           string    `json:"sender_id"`
	MessageType        string    `json:"message_type"`
	TextOriginal       *string   `json:"text_original"`
	TextTranslated     *string   `json:"text_translated"`
	AudioURL           *string   `json:"audio_url"`
	TranslatedAudioURL *string   `json:"translated_audio_url"`
	LanguageOriginal   string    `json:"language_original"`
	TranslationStatus  string    `json:"translation_status"`
	CreatedAt          time.Time `json:"created_at"`
	DedupeKey          *string   `json:"dedupe_key"`
}

func (w wireMessage) toDomain() chat.Message {
	return chat.Message{
		ID:                 w.ID,
		ChatID:             w.ChatID,
		SenderID:           w.SenderID,
		Kind:               chat.MessageKind(w.MessageType),
		TextOriginal:       w.TextOriginal,
		TextTranslated:     w.TextTranslated,
		AudioURL:           w.AudioURL,
		TranslatedAudioURL: w.TranslatedAudioURL,
		LanguageOriginal:   w.LanguageOriginal,
		TranslationStatus:  chat.TranslationStatus(w.TranslationStatus),
		CreatedAt:          w.CreatedAt,
		DedupeKey:          w.DedupeKey,
	}
}

type serverFrame struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id"`
	Message        wireMessage `json:"message"`
	Code           string      `json:"code"`
	Error          string      `json:"error"`
}

type clientFrame struct {
	Type           string  `json:"type"`
	ConversationID string  `json:"conversation_id,omitempty"`
	MessageType    string  `json:"message_type,omitempty"`
	TextOriginal   *string `json:"text_original,omitempty"`
	DedupeKey      *string `json:"dedupe_key,omitempty"`
}

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "base URL of the chat API")
	userID := flag.String("user", "", "participant id to connect as")
	chatID := flag.String("chat", "", "conversation id to join")
	flag.Parse()
	if *userID == "" || *chatID == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed, err := fetchHistory(ctx, *apiURL, *chatID)
	if err != nil {
		log.Fatalf("client: load history: %v", err)
	}

	session := chat.SessionContext{Participant: chat.Participant{ID: *userID}}
	merger := view.NewMerger(session, seed)

	ws, err := dial(ctx, *apiURL, *userID)
	if err != nil {
		log.Fatalf("client: connect: %v", err)
	}
	defer ws.Close()

	if err := writeFrame(ws, clientFrame{Type: "join", ConversationID: *chatID}); err != nil {
		log.Fatalf("client: join: %v", err)
	}

	// Feed events arrive on their own goroutine and are folded in through
	// Consume; acks resolve optimistic entries directly.
	events := make(chan repository.MessageEvent, 64)
	var consumed sync.WaitGroup
	consumed.Add(1)
	go func() {
		defer consumed.Done()
		merger.Consume(ctx, events)
	}()

	go readLoop(ctx, ws, merger, events, stop)
	go renderLoop(ctx, merger, *userID)

	sendLoop(ctx, ws, merger, *chatID)

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	stop()
	consumed.Wait()
}

func fetchHistory(ctx context.Context, apiURL, chatID string) ([]chat.Message, error) {
	url := strings.TrimSuffix(apiURL, "/") + "/api/v1/chat/" + chatID + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history endpoint returned %s", resp.Status)
	}

	var body struct {
		Messages []wireMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	out := make([]chat.Message, 0, len(body.Messages))
	for _, w := range body.Messages {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func dial(ctx context.Context, apiURL, userID string) (*websocket.Conn, error) {
	wsURL := strings.TrimSuffix(apiURL, "/") + "/api/v1/chat/ws?user_id=" + userID
	wsURL = "ws" + strings.TrimPrefix(wsURL, "http")
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	return ws, err
}

func writeFrame(ws *websocket.Conn, frame clientFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, payload)
}

// readLoop turns inbound frames into merger input: feed events flow through
// the events channel, acks confirm optimistic sends by correlation token.
func readLoop(ctx context.Context, ws *websocket.Conn, merger *view.Merger, events chan<- repository.MessageEvent, stop func()) {
	defer stop()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("client: connection lost: %v", err)
			}
			return
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "message":
			select {
			case events <- repository.MessageEvent{Kind: repository.EventInsert, Message: frame.Message.toDomain()}:
			case <-ctx.Done():
				return
			}
		case "message_updated":
			select {
			case events <- repository.MessageEvent{Kind: repository.EventUpdate, Message: frame.Message.toDomain()}:
			case <-ctx.Done():
				return
			}
		case "ack":
			msg := frame.Message.toDomain()
			if msg.DedupeKey != nil {
				merger.Confirm(*msg.DedupeKey, msg)
			}
		case "error":
			log.Printf("client: server error %s: %s", frame.Code, frame.Error)
		}
	}
}

// sendLoop blocks on stdin; each line becomes an optimistic entry and a
// message frame carrying the correlation token.
func sendLoop(ctx context.Context, ws *websocket.Conn, merger *view.Merger, chatID string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		draft := chat.Message{
			ChatID:            chatID,
			Kind:              chat.MessageKindText,
			TextOriginal:      &text,
			TranslationStatus: chat.TranslationPending,
		}
		_, token := merger.ApplyLocal(draft)

		err := writeFrame(ws, clientFrame{
			Type:           "message",
			ConversationID: chatID,
			MessageType:    string(chat.MessageKindText),
			TextOriginal:   &text,
			DedupeKey:      &token,
		})
		if err != nil {
			log.Printf("client: send: %v", err)
			return
		}
	}
}

// renderLoop reprints the merged view whenever it changes.
func renderLoop(ctx context.Context, merger *view.Merger, userID string) {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rendered := render(merger.Messages(), userID)
			if rendered == last {
				continue
			}
			last = rendered
			fmt.Print(rendered)
		}
	}
}

func render(msgs []chat.Message, userID string) string {
	var b strings.Builder
	b.WriteString("\n---\n")
	for _, m := range msgs {
		who := m.SenderID
		if m.SenderID == userID {
			who = "you"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04:05"), who, renderBody(m)))
	}
	b.WriteString("> ")
	return b.String()
}

func renderBody(m chat.Message) string {
	var body string
	switch {
	case m.Kind == chat.MessageKindAudio && m.AudioURL != nil:
		body = "(audio) " + *m.AudioURL
	case m.TextOriginal != nil:
		body = *m.TextOriginal
	}

	switch m.TranslationStatus {
	case chat.TranslationCompleted:
		if m.TextTranslated != nil {
			body += "  => " + *m.TextTranslated
		} else if m.TranslatedAudioURL != nil {
			body += "  => (audio) " + *m.TranslatedAudioURL
		}
	case chat.TranslationPending, chat.TranslationProcessing:
		body += "  (translating...)"
	case chat.TranslationFailed:
		body += "  (translation failed)"
	}
	return body
}
