package services

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/infinyhq/infiny_backend/models"
	"github.com/infinyhq/infiny_backend/utils"
)

// TokenValidity is the lifetime of a referral response token.
const TokenValidity = 48 * time.Hour

var (
	ErrReferralNotFound  = errors.New("referral request not found")
	ErrReferrerNotFound  = errors.New("referrer not found")
	ErrDuplicateReferral = errors.New("a referral request already exists between these users")
	ErrNotReferrer       = errors.New("only the referrer can update this request")
	ErrNotRequester      = errors.New("you can only delete your own pending requests")
	ErrNotPending        = errors.New("this request has already been responded to")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("this link has expired")
	ErrEmailTaken        = errors.New("this email address is already in use")
	ErrInvalidStatus     = errors.New("status must be ACCEPTED or REJECTED")
)

// ReferralNotifier is the outbound email surface the referral engine needs.
// Sends are dispatched on their own goroutines and never fail the caller:
// delivery errors are logged and dropped.
type ReferralNotifier interface {
	SendReferralInvitation(toEmail, referrerName, requesterName, message, invitationLink, relationType string)
	SendAcceptance(toEmail, name string)
	SendRefusal(toEmail, name string)
}

type ReferralService struct {
	DB     *gorm.DB
	Mail   ReferralNotifier
	AppURL string

	// Now is swappable so expiry behavior can be pinned in tests.
	Now func() time.Time
}

func NewReferralService(db *gorm.DB, mail ReferralNotifier, appURL string) *ReferralService {
	return &ReferralService{DB: db, Mail: mail, AppURL: appURL, Now: time.Now}
}

func (s *ReferralService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type InvitationDetails struct {
	ID             uuid.UUID `json:"id"`
	RequesterName  string    `json:"requester_name"`
	RequesterEmail string    `json:"requester_email"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiryDate     time.Time `json:"expiry_date"`
}

type StatusCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

type ReferralStats struct {
	Sent     StatusCounts `json:"sent"`
	Received StatusCounts `json:"received"`
}

func profileName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Profile != nil {
		name := u.Profile.FirstName
		if u.Profile.LastName != "" {
			if name != "" {
				name += " "
			}
			name += u.Profile.LastName
		}
		if name != "" {
			return name
		}
	}
	return u.Email
}

func firstName(u *models.User) string {
	if u != nil && u.Profile != nil {
		return u.Profile.FirstName
	}
	return ""
}

// Create opens a PENDING referral from requester to an existing account,
// mints an invitation link and mails it to the referrer. A failed email never
// fails the creation.
func (s *ReferralService) Create(requesterID, referrerID uuid.UUID, message, relationType string) (*models.Referral, string, error) {
	var referrer models.User
	if err := s.DB.Preload("Profile").First(&referrer, "id = ?", referrerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrReferrerNotFound
		}
		return nil, "", err
	}

	var count int64
	if err := s.DB.Model(&models.Referral{}).
		Where("requester_id = ? AND referrer_id = ?", requesterID, referrerID).
		Count(&count).Error; err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", ErrDuplicateReferral
	}

	var requester models.User
	if err := s.DB.Preload("Profile").First(&requester, "id = ?", requesterID).Error; err != nil {
		return nil, "", err
	}

	referrerFirst := firstName(&referrer)
	referral := models.Referral{
		ID:                uuid.New(),
		RequesterID:       requesterID,
		ReferrerID:        &referrerID,
		Status:            models.ReferralStatusPending,
		Message:           message,
		RelationType:      relationType,
		ReferrerFirstName: &referrerFirst,
	}
	if err := s.DB.Create(&referral).Error; err != nil {
		// The count check above is not atomic with the insert; a concurrent
		// duplicate lands on the unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrDuplicateReferral
		}
		return nil, "", err
	}

	token, expiry, err := s.issueToken(referral.ID)
	if err != nil {
		return nil, "", err
	}
	referral.ResponseToken = &token
	referral.TokenExpiry = &expiry
	link := s.acceptLink(s.AppURL, referral.ID, token)

	if s.Mail != nil {
		go s.Mail.SendReferralInvitation(referrer.Email, profileName(&referrer), profileName(&requester), message, link, relationType)
	}

	var created models.Referral
	if err := s.DB.Preload("Requester.Profile").Preload("Referrer.Profile").First(&created, "id = ?", referral.ID).Error; err != nil {
		return nil, "", err
	}
	return &created, link, nil
}

// CreateWithMail opens a referral toward an email address with no account yet.
// The referrer slot stays empty until that email registers with the token.
func (s *ReferralService) CreateWithMail(requesterID uuid.UUID, email, invFirstName, invLastName, message, relationType string) (*models.Referral, error) {
	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	var requester models.User
	if err := s.DB.Preload("Profile").First(&requester, "id = ?", requesterID).Error; err != nil {
		return nil, err
	}

	token, err := utils.GenerateResponseToken()
	if err != nil {
		return nil, err
	}
	expiry := s.now().Add(TokenValidity)

	referral := models.Referral{
		ID:                uuid.New(),
		RequesterID:       requesterID,
		Status:            models.ReferralStatusPending,
		Message:           message,
		RelationType:      relationType,
		ResponseToken:     &token,
		TokenExpiry:       &expiry,
		ReferrerFirstName: &invFirstName,
		InviteEmail:       &email,
	}
	if err := s.DB.Create(&referral).Error; err != nil {
		return nil, err
	}

	invitationLink := fmt.Sprintf("%s/register?token=%s", s.AppURL, token)
	if s.Mail != nil {
		name := invFirstName
		if invLastName != "" {
			name += " " + invLastName
		}
		go s.Mail.SendReferralInvitation(email, name, profileName(&requester), message, invitationLink, relationType)
	}

	return &referral, nil
}

// issueToken mints a fresh response token with a 48h window and persists it on
// the referral, replacing any previous one.
func (s *ReferralService) issueToken(referralID uuid.UUID) (string, time.Time, error) {
	token, err := utils.GenerateResponseToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiry := s.now().Add(TokenValidity)

	err = s.DB.Model(&models.Referral{}).Where("id = ?", referralID).
		Updates(map[string]interface{}{
			"response_token": token,
			"token_expiry":   expiry,
		}).Error
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

func (s *ReferralService) acceptLink(baseURL string, referralID uuid.UUID, token string) string {
	params := url.Values{}
	params.Set("referralId", referralID.String())
	params.Set("token", token)
	return fmt.Sprintf("%s/public/referrals/accept?%s", baseURL, params.Encode())
}

// GenerateInvitationLink re-issues the response token for a referral. Any link
// sent earlier silently stops working.
func (s *ReferralService) GenerateInvitationLink(referralID uuid.UUID, baseURL string) (string, *InvitationDetails, error) {
	var referral models.Referral
	err := s.DB.Preload("Requester.Profile").First(&referral, "id = ?", referralID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrReferralNotFound
		}
		return "", nil, err
	}

	token, expiry, err := s.issueToken(referralID)
	if err != nil {
		return "", nil, err
	}

	details := &InvitationDetails{
		ID:             referralID,
		RequesterName:  profileName(referral.Requester),
		RequesterEmail: referral.Requester.Email,
		Message:        referral.Message,
		CreatedAt:      referral.CreatedAt,
		ExpiryDate:     expiry,
	}
	return s.acceptLink(baseURL, referralID, token), details, nil
}

// VerifyResponseToken checks the bearer credential on the public accept paths.
// An expired link is reported distinctly from a wrong token.
func (s *ReferralService) VerifyResponseToken(referralID uuid.UUID, token string) (*models.Referral, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	var referral models.Referral
	if err := s.DB.First(&referral, "id = ?", referralID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}

	if referral.ResponseToken == nil || *referral.ResponseToken != token {
		return nil, ErrTokenInvalid
	}
	if referral.TokenExpiry == nil || !s.now().Before(*referral.TokenExpiry) {
		return nil, ErrTokenExpired
	}

	return &referral, nil
}

// Respond lets the referrer of record accept or reject a pending referral.
func (s *ReferralService) Respond(referralID, actorID uuid.UUID, status string, responseMessage string) (*models.Referral, error) {
	if status != models.ReferralStatusAccepted && status != models.ReferralStatusRejected {
		return nil, ErrInvalidStatus
	}

	var referral models.Referral
	if err := s.DB.First(&referral, "id = ?", referralID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}

	if referral.ReferrerID == nil || *referral.ReferrerID != actorID {
		return nil, ErrNotReferrer
	}

	return s.transition(referralID, status, responseMessage)
}

// AcceptViaToken is the anonymous variant behind the mailed link. The token is
// the credential; the stored referrer is the implicit actor, and the outcome
// is always ACCEPTED.
func (s *ReferralService) AcceptViaToken(referralID uuid.UUID, token, responseMessage string) (*models.Referral, error) {
	referral, err := s.VerifyResponseToken(referralID, token)
	if err != nil {
		return nil, err
	}
	if referral.ReferrerID == nil {
		return nil, ErrReferralNotFound
	}
	if responseMessage == "" {
		responseMessage = "Demande acceptée via lien"
	}
	return s.transition(referralID, models.ReferralStatusAccepted, responseMessage)
}

// transition flips a referral out of PENDING. The update is conditioned on the
// current status so concurrent responders and the expiry sweep cannot both
// win; the loser sees ErrNotPending.
func (s *ReferralService) transition(referralID uuid.UUID, status, responseMessage string) (*models.Referral, error) {
	now := s.now()
	res := s.DB.Model(&models.Referral{}).
		Where("id = ? AND status = ?", referralID, models.ReferralStatusPending).
		Updates(map[string]interface{}{
			"status":           status,
			"response_message": responseMessage,
			"response_date":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotPending
	}

	var updated models.Referral
	if err := s.DB.Preload("Requester.Profile").Preload("Referrer.Profile").First(&updated, "id = ?", referralID).Error; err != nil {
		return nil, err
	}

	if s.Mail != nil && updated.Requester != nil {
		name := ""
		if updated.ReferrerFirstName != nil {
			name = *updated.ReferrerFirstName
		}
		if name == "" {
			name = profileName(updated.Referrer)
		}
		if status == models.ReferralStatusAccepted {
			go s.Mail.SendAcceptance(updated.Requester.Email, name)
		} else {
			go s.Mail.SendRefusal(updated.Requester.Email, name)
		}
	}

	return &updated, nil
}

// BindInviteToken attaches an invite-by-email referral to a freshly registered
// account and accepts it. Called from the register flow when the new user
// presents the token from their invitation mail.
func (s *ReferralService) BindInviteToken(token string, newUserID uuid.UUID) (*models.Referral, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	var referral models.Referral
	if err := s.DB.First(&referral, "response_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if referral.TokenExpiry == nil || !s.now().Before(*referral.TokenExpiry) {
		return nil, ErrTokenExpired
	}

	res := s.DB.Model(&models.Referral{}).
		Where("id = ? AND status = ?", referral.ID, models.ReferralStatusPending).
		Updates(map[string]interface{}{
			"referrer_id":   newUserID,
			"status":        models.ReferralStatusAccepted,
			"response_date": s.now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotPending
	}

	var updated models.Referral
	if err := s.DB.Preload("Requester.Profile").First(&updated, "id = ?", referral.ID).Error; err != nil {
		return nil, err
	}
	if s.Mail != nil && updated.Requester != nil {
		name := ""
		if updated.ReferrerFirstName != nil {
			name = *updated.ReferrerFirstName
		}
		go s.Mail.SendAcceptance(updated.Requester.Email, name)
	}
	return &updated, nil
}

// Remove is the requester's self-service withdrawal of a still-pending request.
func (s *ReferralService) Remove(referralID, actorID uuid.UUID) error {
	var referral models.Referral
	if err := s.DB.First(&referral, "id = ?", referralID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReferralNotFound
		}
		return err
	}

	if referral.RequesterID != actorID {
		return ErrNotRequester
	}
	if referral.Status != models.ReferralStatusPending {
		return ErrNotPending
	}

	return s.DB.Delete(&models.Referral{}, "id = ?", referralID).Error
}

func (s *ReferralService) ListFor(userID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	err := s.DB.Preload("Requester.Profile").Preload("Referrer.Profile").
		Where("requester_id = ? OR referrer_id = ?", userID, userID).
		Find(&referrals).Error
	return referrals, err
}

func (s *ReferralService) ListSent(userID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	err := s.DB.Preload("Requester.Profile").Preload("Referrer.Profile").
		Where("requester_id = ?", userID).
		Order("created_at desc").
		Find(&referrals).Error
	return referrals, err
}

func (s *ReferralService) ListReceived(userID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	err := s.DB.Preload("Requester.Profile").Preload("Referrer.Profile").
		Where("referrer_id = ?", userID).
		Order("created_at desc").
		Find(&referrals).Error
	return referrals, err
}

func (s *ReferralService) FindOne(referralID, userID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	err := s.DB.Preload("Requester.Profile").Preload("Referrer.Profile").
		Where("id = ? AND (requester_id = ? OR referrer_id = ?)", referralID, userID, userID).
		First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}
	return &referral, nil
}

func (s *ReferralService) Stats(userID uuid.UUID) (*ReferralStats, error) {
	stats := &ReferralStats{}

	count := func(dst *int64, query string, args ...interface{}) error {
		return s.DB.Model(&models.Referral{}).Where(query, args...).Count(dst).Error
	}

	type entry struct {
		dst    *int64
		query  string
		status string
	}
	entries := []entry{
		{&stats.Sent.Total, "requester_id = ?", ""},
		{&stats.Sent.Pending, "requester_id = ? AND status = ?", models.ReferralStatusPending},
		{&stats.Sent.Accepted, "requester_id = ? AND status = ?", models.ReferralStatusAccepted},
		{&stats.Sent.Rejected, "requester_id = ? AND status = ?", models.ReferralStatusRejected},
		{&stats.Received.Total, "referrer_id = ?", ""},
		{&stats.Received.Pending, "referrer_id = ? AND status = ?", models.ReferralStatusPending},
		{&stats.Received.Accepted, "referrer_id = ? AND status = ?", models.ReferralStatusAccepted},
		{&stats.Received.Rejected, "referrer_id = ? AND status = ?", models.ReferralStatusRejected},
	}
	for _, e := range entries {
		var err error
		if e.status == "" {
			err = count(e.dst, e.query, userID)
		} else {
			err = count(e.dst, e.query, userID, e.status)
		}
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// SweepExpired force-rejects pending referrals whose token window has closed
// and tells the requester. Each referral is handled independently: one bad
// record or failed email never stops the batch. A rejected referral no longer
// matches the query, so re-running the sweep is harmless.
func (s *ReferralService) SweepExpired() (int, error) {
	now := s.now()

	var expired []models.Referral
	err := s.DB.Preload("Requester").
		Where("status = ? AND token_expiry < ?", models.ReferralStatusPending, now).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, referral := range expired {
		res := s.DB.Model(&models.Referral{}).
			Where("id = ? AND status = ?", referral.ID, models.ReferralStatusPending).
			Update("status", models.ReferralStatusRejected)
		if res.Error != nil {
			log.Printf("Failed to expire referral %s: %v", referral.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			// Someone responded between the scan and the update.
			continue
		}
		processed++

		if s.Mail != nil && referral.Requester != nil && referral.ReferrerFirstName != nil {
			go s.Mail.SendRefusal(referral.Requester.Email, *referral.ReferrerFirstName)
		} else {
			log.Printf("Skipping expiry notification for referral %s due to missing requester/referrer data", referral.ID)
		}
	}

	return processed, nil
}
