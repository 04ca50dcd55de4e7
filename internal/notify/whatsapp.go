package notify

import (
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioWhatsAppSender delivers alerts over WhatsApp via Twilio's messaging API.
type TwilioWhatsAppSender struct {
	client *twilio.RestClient
	from   string // sender number without the whatsapp: prefix
}

func NewTwilioWhatsAppSender(accountSID, authToken, from string) *TwilioWhatsAppSender {
	return &TwilioWhatsAppSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (w *TwilioWhatsAppSender) Send(to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetFrom("whatsapp:" + w.from)
	params.SetTo("whatsapp:" + to)
	params.SetBody(body)
	_, err := w.client.Api.CreateMessage(params)
	return err
}
