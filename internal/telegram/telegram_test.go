package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDialog struct {
	mu      sync.Mutex
	turns   []string
	cleared []int64
	err     error
}

func (d *fakeDialog) Reply(_ context.Context, userID int64, text string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.turns = append(d.turns, text)
	return "re: " + text, nil
}

func (d *fakeDialog) Clear(_ context.Context, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared = append(d.cleared, userID)
	return nil
}

type sent struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu  sync.Mutex
	out []sent
}

func (s *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, sent{chatID, text})
	return nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.out {
		out = append(out, m.text)
	}
	return out
}

func msg(userID int64, text string) Update {
	return Update{Message: &Message{From: &User{ID: userID}, Chat: Chat{ID: userID * 10}, Text: text}}
}

func TestBot_Commands(t *testing.T) {
	d := &fakeDialog{}
	s := &fakeSender{}
	b := NewBot(d, s, "Helper", "I help.", nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, msg(1, "/start"))
	b.HandleUpdate(ctx, msg(1, "/role@my_bot"))
	b.HandleUpdate(ctx, msg(1, "/clear"))
	b.HandleUpdate(ctx, msg(1, "hello"))

	assert.Equal(t, []string{greetingText, "🤖 Helper\n\nI help.", clearedText, "re: hello"}, s.texts())
	assert.Equal(t, []int64{1}, d.cleared)
	assert.Equal(t, []string{"hello"}, d.turns)
	assert.Equal(t, int64(10), s.out[0].chatID)
}

func TestBot_IgnoresEmptyAndUnknownCommandIsText(t *testing.T) {
	d := &fakeDialog{}
	s := &fakeSender{}
	b := NewBot(d, s, "", "", nil)

	b.HandleUpdate(context.Background(), Update{})
	b.HandleUpdate(context.Background(), Update{Message: &Message{Text: "no sender"}})
	b.HandleUpdate(context.Background(), msg(1, "   "))
	b.HandleUpdate(context.Background(), msg(1, "/help"))

	assert.Equal(t, []string{"/help"}, d.turns)
}

func TestBot_FailureIsGeneric(t *testing.T) {
	s := &fakeSender{}
	b := NewBot(&fakeDialog{err: errors.New("openai: 500 upstream")}, s, "", "", nil)

	b.HandleUpdate(context.Background(), msg(1, "hi"))
	assert.Equal(t, []string{failureText}, s.texts())
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"abc"}, splitText("abc", 5))
	assert.Equal(t, []string{"ab", "cd", "e"}, splitText("abcde", 2))
	parts := splitText(strings.Repeat("ж", 9000), maxMessageRunes)
	assert.Len(t, parts, 3)
}

func TestClient_GetUpdatesAndSend(t *testing.T) {
	var sentBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"message_id":1,"from":{"id":42,"is_bot":false,"first_name":"A"},"chat":{"id":42,"type":"private"},"date":1,"text":"hi"}}]}`))
		case "/botTOKEN/sendMessage":
			_ = json.NewDecoder(r.Body).Decode(&sentBody)
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":2,"chat":{"id":42,"type":"private"},"date":1,"text":"yo"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN", 5*time.Second)
	ups, err := c.GetUpdates(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, int64(7), ups[0].UpdateID)
	assert.Equal(t, int64(42), ups[0].Message.From.ID)
	assert.Equal(t, "hi", ups[0].Message.Text)

	require.NoError(t, c.SendMessage(context.Background(), 42, "yo"))
	assert.Equal(t, "yo", sentBody["text"])
	assert.EqualValues(t, 42, sentBody["chat_id"])
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "bad", time.Second).SendMessage(context.Background(), 1, "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.Equal(t, "Unauthorized", apiErr.Description)
}

// scriptedSource serves one batch, then blocks until cancelled.
type scriptedSource struct {
	batch   []Update
	served  bool
	offsets []int64
	cancel  context.CancelFunc
	mu      sync.Mutex
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64, _ int) ([]Update, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	if !s.served {
		s.served = true
		s.mu.Unlock()
		return s.batch, nil
	}
	s.mu.Unlock()
	s.cancel()
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPoller_DeliversInOrderPerUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var batch []Update
	for i := 0; i < 6; i++ {
		u := msg(int64(1+i%2), string(rune('a'+i)))
		u.UpdateID = int64(100 + i)
		batch = append(batch, u)
	}
	src := &scriptedSource{batch: batch, cancel: cancel}
	s := &fakeSender{}
	d := &fakeDialog{}

	p := NewPoller(src, NewBot(d, s, "", "", nil), 3, 0, time.Millisecond, nil)
	require.NoError(t, p.Run(ctx))

	// Run drains workers before returning
	assert.Len(t, s.texts(), 6)
	var user1 []string
	for _, m := range s.out {
		if m.chatID == 10 {
			user1 = append(user1, m.text)
		}
	}
	assert.Equal(t, []string{"re: a", "re: c", "re: e"}, user1)
	assert.Equal(t, []int64{0, 106}, src.offsets)
}
