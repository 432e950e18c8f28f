package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/tests"
)

var testConf = &core.Config{
	AppName:          "Chuo",
	DefaultFromEmail: mail.Address{Name: "Chuo", Address: "noreply@uni.ac.tz"},
}

func digestMessage(t *testing.T, to ...mail.Address) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:           to,
		Subject:      "Complaints: 1 matching record(s)",
		TemplateName: portal.DigestTemplate,
		TemplateData: portal.DigestData{
			Title:   "Complaints",
			Total:   1,
			Columns: []string{"Title", "Status"},
			Rows:    [][]string{{"Water Leak", "Pending"}},
		},
	}
	require.NoError(t, msg.Attach(strings.NewReader("Title,Status\nWater Leak,Pending\n"), "complaints.csv", "text/csv"))
	return msg
}

func TestConsoleService(t *testing.T) {
	var out bytes.Buffer
	logger := &testutil.Logger{}
	svc := newConsoleService(testConf, logger, &out)

	dean := mail.Address{Name: "Dean", Address: "dean@uni.ac.tz"}
	svc.SendMessages(
		digestMessage(t, dean),
		digestMessage(t), // no recipients: dropped
		&core.EmailMessage{To: []mail.Address{dean}, Subject: "broken", TemplateName: "nope"},
	)
	svc.Wait()

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "- Water Leak | Pending")
	assert.Contains(t, sent[0].HTMLContent, "<td>Water Leak</td>")

	printed := out.String()
	assert.Contains(t, printed, "Subject: [Chuo] Complaints: 1 matching record(s)")
	assert.Contains(t, printed, `To: "Dean" <dean@uni.ac.tz>`)
	assert.Contains(t, printed, "Content-Type: multipart/mixed")
	assert.Contains(t, printed, "attachment; filename=complaints.csv")

	assert.Equal(t, []string{"error"}, logger.Levels(), "unknown template is logged")
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf, &testutil.Logger{})

	msg := digestMessage(t, mail.Address{Name: "Dean", Address: "dean@uni.ac.tz"})
	msg.Cc = []mail.Address{{Address: "registrar@uni.ac.tz"}}
	require.NoError(t, msg.Render(testConf.AppName))

	m := svc.prepare(*msg)
	assert.Equal(t, "noreply@uni.ac.tz", m.From.Address)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Chuo] Complaints: 1 matching record(s)", p.Subject)
	assert.Equal(t, "dean@uni.ac.tz", p.To[0].Address)
	assert.Equal(t, "registrar@uni.ac.tz", p.CC[0].Address)

	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)

	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "complaints.csv", m.Attachments[0].Filename)
	assert.Equal(t, "attachment", m.Attachments[0].Disposition)
}
