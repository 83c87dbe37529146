package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type SMSSender struct {
	client *twilio.RestClient
	from   string
}

func NewSMSSender(accountSID, authToken, from string) *SMSSender {
	return &SMSSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (s *SMSSender) Name() string { return "sms" }

func (s *SMSSender) Send(_ context.Context, n Notification) error {
	to := n.Appointment.Customer.Phone
	if to == "" {
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(n.Body())

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}

	if resp.Sid != nil {
		log.Debug().Str("sid", *resp.Sid).Uint("appointment_id", n.Appointment.ID).Msg("sms queued")
	}
	return nil
}

var _ Sender = (*SMSSender)(nil)
