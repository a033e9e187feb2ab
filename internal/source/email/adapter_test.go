package email

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/source"
)

const plainMessage = "From: Alice Johnson <alice@example.com>\r\n" +
	"To: support@example.com\r\n" +
	"Subject: Order #1234 not delivered\r\n" +
	"Date: Mon, 04 Mar 2024 10:15:00 +0000\r\n" +
	"Message-ID: <order-1234@example.com>\r\n" +
	"X-Priority: 1 (Highest)\r\n" +
	"\r\n" +
	"My order still has not arrived.\r\n"

const multipartMessage = "From: bob@example.com\r\n" +
	"Subject: Invoice\r\n" +
	"Date: Tue, 05 Mar 2024 08:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Please find the invoice attached.</p><p>Thanks &amp; regards</p>\r\n" +
	"--XYZ\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=invoice.pdf\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"aGVsbG8=\r\n" +
	"--XYZ--\r\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestAdapterLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01-order.eml", plainMessage)
	writeFile(t, dir, "02-invoice.EML", multipartMessage)
	writeFile(t, dir, "notes.txt", "not a message")

	a := NewAdapter(dir, nil)
	if a.Kind() != source.KindEML {
		t.Errorf("Kind = %q, want eml", a.Kind())
	}

	emails, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("loaded %d emails, want 2", len(emails))
	}

	order := emails[0]
	if order.ID != "order-1234@example.com" {
		t.Errorf("ID = %q", order.ID)
	}
	if order.Sender != "Alice Johnson" || order.SenderAddress != "alice@example.com" {
		t.Errorf("sender = %q <%s>", order.Sender, order.SenderAddress)
	}
	if order.Subject != "Order #1234 not delivered" {
		t.Errorf("Subject = %q", order.Subject)
	}
	if order.Body != "My order still has not arrived." {
		t.Errorf("Body = %q", order.Body)
	}
	if order.Priority != model.PriorityHigh {
		t.Errorf("Priority = %q, want high", order.Priority)
	}
	if order.Sentiment != "" {
		t.Errorf("Sentiment = %q, want empty for classification", order.Sentiment)
	}
	if order.Status != model.StatusPending {
		t.Errorf("Status = %q, want pending", order.Status)
	}
	want := time.Date(2024, 3, 4, 10, 15, 0, 0, time.UTC)
	if !order.ReceivedAt.Equal(want) {
		t.Errorf("ReceivedAt = %v, want %v", order.ReceivedAt, want)
	}

	invoice := emails[1]
	if invoice.Sender != "bob" {
		t.Errorf("Sender = %q, want bob", invoice.Sender)
	}
	if invoice.ID == "" {
		t.Error("message without Message-ID got no ID")
	}
	if !strings.Contains(invoice.Body, "Please find the invoice attached.") ||
		!strings.Contains(invoice.Body, "Thanks & regards") {
		t.Errorf("Body = %q, want stripped HTML", invoice.Body)
	}
	if !strings.Contains(invoice.Body, "[attachment: invoice.pdf, application/pdf, 5 B]") {
		t.Errorf("Body = %q, want attachment line", invoice.Body)
	}
	if invoice.Priority != "" {
		t.Errorf("Priority = %q, want empty", invoice.Priority)
	}
}

func TestAdapterStableIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.eml", multipartMessage)

	a := NewAdapter(dir, nil)
	first, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first[0].ID != second[0].ID {
		t.Errorf("ID changed across loads: %q vs %q", first[0].ID, second[0].ID)
	}
}

func TestAdapterMissingDir(t *testing.T) {
	a := NewAdapter(filepath.Join(t.TempDir(), "nope"), nil)
	if _, err := a.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestPriorityHeader(t *testing.T) {
	tests := []struct {
		header string
		want   model.Priority
	}{
		{"", ""},
		{"1", model.PriorityHigh},
		{"2 (High)", model.PriorityHigh},
		{"3 (Normal)", model.PriorityMedium},
		{"5 (Lowest)", model.PriorityLow},
		{"urgent", ""},
	}
	for _, tt := range tests {
		m := &ParsedMessage{Priority: tt.header}
		if got := m.priority(); got != tt.want {
			t.Errorf("priority(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<div>Hello<br>World</div><p>&lt;ok&gt;</p>")
	want := "Hello\nWorld\n<ok>"
	if got != want {
		t.Errorf("stripHTML = %q, want %q", got, want)
	}
}
