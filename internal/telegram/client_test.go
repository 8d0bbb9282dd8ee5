package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"testing"

	"vcert/internal/config"
)

type fakeDoer struct {
	requests []*http.Request
	bodies   []string
	respond  func(req *http.Request) *http.Response
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(raw)
	}
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)
	return f.respond(req), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func testClient(doer *fakeDoer) *Client {
	cfg := config.Default()
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.PollTimeout = 25
	return New(&cfg, doer)
}

func TestGetUpdates(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(200, `{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"chat":{"id":100},"text":"/start"}},
			{"update_id":8,"callback_query":{"id":"cb1","from":{"id":200,"first_name":"A"},"data":"approve:3"}}
		]}`)
	}}
	client := testClient(doer)

	updates, err := client.GetUpdates(context.Background(), 7)
	if err != nil {
		t.Fatalf("getUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "/start" {
		t.Fatalf("first update = %+v", updates[0])
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "approve:3" {
		t.Fatalf("second update = %+v", updates[1])
	}

	req := doer.requests[0]
	if !strings.HasSuffix(req.URL.Path, "/bot123:abc/getUpdates") {
		t.Fatalf("url = %s", req.URL)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(doer.bodies[0]), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["offset"].(float64) != 7 || payload["timeout"].(float64) != 25 {
		t.Fatalf("payload = %v", payload)
	}
}

func TestSendMessageWithKeyboard(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(200, `{"ok":true,"result":{"message_id":42,"chat":{"id":100}}}`)
	}}
	client := testClient(doer)

	keyboard := Keyboard(Row(Button("✅ Подтвердить", "approve:3"), Button("❌ Отклонить", "reject:3")))
	msg, err := client.SendMessage(context.Background(), 100, "Выберите действие:", &SendOptions{
		ParseMode:   Markdown,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		t.Fatalf("sendMessage: %v", err)
	}
	if msg.MessageID != 42 {
		t.Fatalf("message id = %d", msg.MessageID)
	}

	body := doer.bodies[0]
	for _, want := range []string{`"parse_mode":"Markdown"`, `"callback_data":"approve:3"`, `"callback_data":"reject:3"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %s: %s", want, body)
		}
	}
}

func TestAPIErrorSurfacesDescription(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(400, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}}
	client := testClient(doer)

	_, err := client.SendMessage(context.Background(), 100, "hi", nil)
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestSendDocumentUsesMultipart(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(200, `{"ok":true,"result":{}}`)
	}}
	client := testClient(doer)

	content := bytes.NewReader([]byte("%PDF-1.7 fake"))
	err := client.SendDocument(context.Background(), 100, "certificate.pdf", content, "Ваш сертификат")
	if err != nil {
		t.Fatalf("sendDocument: %v", err)
	}

	req := doer.requests[0]
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("content type = %q (%v)", req.Header.Get("Content-Type"), err)
	}
	if params["boundary"] == "" {
		t.Fatal("missing multipart boundary")
	}
	body := doer.bodies[0]
	for _, want := range []string{`name="chat_id"`, `filename="certificate.pdf"`, "%PDF-1.7 fake", `name="caption"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %s", want)
		}
	}
}

func TestBestPhotoPicksLargestVariant(t *testing.T) {
	msg := &Message{Photo: []PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 1280, Height: 960},
		{FileID: "medium", Width: 320, Height: 240},
	}}
	if got := msg.BestPhoto(); got != "large" {
		t.Fatalf("best photo = %q", got)
	}
	if got := (&Message{}).BestPhoto(); got != "" {
		t.Fatalf("empty message photo = %q", got)
	}
}
