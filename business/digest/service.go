package digest

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"shopsense/business/recommend"
	"shopsense/domain"
	"shopsense/pkg/logger"
)

// EmailSender is the outbound delivery boundary.
type EmailSender interface {
	SendEmail(toName, toEmail, subject, htmlBody string) error
}

type Recipient struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name"`
}

type Service struct {
	recommender *recommend.Service
	sender      EmailSender
	baseline    domain.WeightConfig
	tmpl        *template.Template
}

func NewService(recommender *recommend.Service, sender EmailSender, baseline domain.WeightConfig) *Service {
	return &Service{
		recommender: recommender,
		sender:      sender,
		baseline:    baseline,
		tmpl:        template.Must(template.New("digest").Parse(digestTemplate)),
	}
}

// SendDigest renders and sends a personalized recommendation email.
func (s *Service) SendDigest(ctx context.Context, recipient Recipient, n int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if n <= 0 {
		n = 6
	}

	recs, err := s.recommender.Recommend(ctx, domain.RecommendationRequest{
		UserID: recipient.UserID,
		N:      n,
	}, s.baseline)
	if err != nil {
		return fmt.Errorf("build digest recommendations: %w", err)
	}
	if len(recs) == 0 {
		logger.Info("digest skipped, no recommendations", "user_id", recipient.UserID)
		return nil
	}

	html, err := s.render(recipient, recs)
	if err != nil {
		return err
	}

	if err := s.sender.SendEmail(recipient.Name, recipient.Email, "Picked for you", html); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}

	logger.Info("digest sent", "user_id", recipient.UserID, "items", len(recs))
	return nil
}

func (s *Service) render(recipient Recipient, recs []domain.ScoredCandidate) (string, error) {
	data := struct {
		Name            string
		Recommendations []domain.ScoredCandidate
	}{
		Name:            recipient.Name,
		Recommendations: recs,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render digest template: %w", err)
	}

	return buf.String(), nil
}

const digestTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { text-align: center; padding: 20px 0; border-bottom: 2px solid #ff6b35; }
    .product-card { border: 1px solid #ddd; border-radius: 8px; padding: 15px; text-align: center; margin: 15px 0; }
    .product-name { font-size: 16px; font-weight: bold; margin: 10px 0; color: #333; }
    .product-price { font-size: 18px; color: #ff6b35; font-weight: bold; }
    .product-reason { font-size: 13px; color: #888; }
    .cta-button { display: inline-block; background: #ff6b35; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin-top: 10px; font-weight: bold; }
    .footer { text-align: center; margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 12px; color: #888; }
  </style>
</head>
<body>
  <div class="header"><h1>Picked for you{{if .Name}}, {{.Name}}{{end}}</h1></div>
  {{range .Recommendations}}
  <div class="product-card">
    <img src="{{.Product.ImageURL}}" alt="{{.Product.Name}}" width="100%" />
    <div class="product-name">{{.Product.Name}}</div>
    <div class="product-price">${{printf "%.2f" .Product.Price}}</div>
    <div class="product-reason">{{.Reason}}</div>
    <a href="{{.Product.URL}}" class="cta-button">Shop now</a>
  </div>
  {{end}}
  <div class="footer">You receive these picks because of your recent activity.</div>
</body>
</html>`
