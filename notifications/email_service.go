package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	config "github.com/infinyhq/infiny_backend/configs"
	"github.com/infinyhq/infiny_backend/models"
)

type EmailService struct {
	APIKey      string
	APIBase     string
	SenderEmail string
	SenderName  string
}

var EmailClient *EmailService

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func InitEmailService() {
	apiKey := config.Config("RESEND_API_KEY")
	senderEmail := config.Config("EMAIL_SENDER")
	senderName := config.Config("EMAIL_SENDER_NAME")

	if apiKey == "" || senderEmail == "" {
		log.Println("⚠️ Email service not configured. Missing API Key or Sender Email.")
		EmailClient = nil
		return
	}

	EmailClient = &EmailService{
		APIKey:      apiKey,
		APIBase:     "https://api.resend.com",
		SenderEmail: senderEmail,
		SenderName:  senderName,
	}
	log.Println("✅ Email service initialized successfully.")
}

func (s *EmailService) send(toEmail, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	from := s.SenderEmail
	if s.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", s.SenderName, s.SenderEmail)
	}

	payload := resendPayload{
		From:    from,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest("POST", s.APIBase+"/emails", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send email via Resend: %s", string(respBody))
	}

	return nil
}

// deliver swallows transport errors: a failed notification must never fail
// the operation that triggered it.
func (s *EmailService) deliver(toEmail, subject, htmlContent string) {
	if s == nil {
		log.Println("Email client not initialized, skipping email send.")
		return
	}
	if err := s.send(toEmail, subject, htmlContent); err != nil {
		log.Printf("🔥 Failed to send email to %s: %v", toEmail, err)
		return
	}
	log.Printf("✅ Email sent successfully to %s", toEmail)
}

func (s *EmailService) SendReferralInvitation(toEmail, referrerName, requesterName, message, invitationLink, relationType string) {
	relation := "Personnel"
	if relationType == models.RelationTypeProfessional {
		relation = "Professionnel"
	}

	subject := "Peux-tu me recommander sur INFINY ?"
	htmlContent := fmt.Sprintf(`
		<h1>Bonjour %s</h1>
		<p>%s s'inscrit sur INFINY, une plateforme de recrutement qui fonctionne grâce à la recommandation.</p>
		<p>Il/elle indique vous connaître dans un cadre : <strong>%s</strong>.</p>
		<p>%s</p>
		<p><a href="%s">Je recommande</a></p>
		<p>Évidemment, tu peux refuser si tu ne souhaites pas recommander. Dans tous les cas, merci pour ton temps !</p>`,
		referrerName, requesterName, relation, message, invitationLink)

	s.deliver(toEmail, subject, htmlContent)
}

func (s *EmailService) SendAcceptance(toEmail, name string) {
	subject := fmt.Sprintf("%s a répondu à votre demande", name)
	htmlContent := fmt.Sprintf(`
		<h1>Bravo !</h1>
		<p>%s a accepté votre demande de recommandation.</p>`, name)

	s.deliver(toEmail, subject, htmlContent)
}

func (s *EmailService) SendRefusal(toEmail, name string) {
	subject := fmt.Sprintf("%s a refusé votre demande", name)
	htmlContent := fmt.Sprintf(`
		<h1>Dommage !</h1>
		<p>%s a refusé votre demande de recommandation.</p>
		<p>Vous pouvez envoyer une nouvelle demande à un tiers depuis votre espace.</p>`, name)

	s.deliver(toEmail, subject, htmlContent)
}

func (s *EmailService) SendVerificationEmail(toEmail, firstName, verificationURL string) {
	greeting := firstName
	if greeting == "" {
		greeting = "cher utilisateur"
	}
	subject := "Vérifiez votre adresse email"
	htmlContent := fmt.Sprintf(`
		<h1>Bonjour %s,</h1>
		<p>Merci de vous être inscrit sur notre plateforme. Veuillez cliquer sur le lien ci-dessous pour vérifier votre adresse email :</p>
		<p><a href="%s">Vérifier mon email</a></p>
		<p>Ce lien expirera dans 24 heures.</p>
		<p>Si vous n'avez pas créé de compte, veuillez ignorer cet email.</p>`,
		greeting, verificationURL)

	s.deliver(toEmail, subject, htmlContent)
}

func (s *EmailService) SendPasswordResetEmail(toEmail, resetURL string) {
	subject := "Réinitialisation de votre mot de passe"
	htmlContent := fmt.Sprintf(`
		<h1>Réinitialisation du mot de passe</h1>
		<p>Cliquez sur le lien ci-dessous pour choisir un nouveau mot de passe :</p>
		<p><a href="%s">Réinitialiser mon mot de passe</a></p>
		<p>Ce lien expirera dans 15 minutes.</p>`, resetURL)

	s.deliver(toEmail, subject, htmlContent)
}
