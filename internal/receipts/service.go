package receipts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/wecantrust/donations-backend/internal/donations"
	"github.com/wecantrust/donations-backend/internal/mailer"
	"github.com/wecantrust/donations-backend/pkg/config"
	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
	"github.com/wecantrust/donations-backend/pkg/metrics"
	"github.com/wecantrust/donations-backend/pkg/redis"
	"github.com/wecantrust/donations-backend/pkg/render"
	"github.com/wecantrust/donations-backend/pkg/storage/gcs"
)

// VerifyResult is the public outcome of a receipt verification.
type VerifyResult struct {
	ReceiptNumber string `json:"receipt_number"`
	DonorName     string `json:"donor_name"`
	Amount        int64  `json:"amount"`
	Purpose       string `json:"purpose"`
	Currency      string `json:"currency"`
	Date          string `json:"date"`
	FinancialYear string `json:"financial_year"`
	Valid         bool   `json:"valid"`
	HashChecked   bool   `json:"hash_checked"`
}

// RegenerateResult reports what a forced rebuild did.
type RegenerateResult struct {
	ReceiptNumber string `json:"receipt_number"`
	EmailSent     bool   `json:"email_sent"`
}

// Service owns receipt generation, verification and delivery.
type Service interface {
	donations.ReceiptPipeline
	Verify(ctx context.Context, receiptNumber, hash string) (*VerifyResult, error)
	Regenerate(ctx context.Context, donationID uuid.UUID, sendEmail bool) (*RegenerateResult, error)
	Resend(ctx context.Context, receiptNumber, overrideEmail string) (string, error)
	Download(ctx context.Context, receiptNumber string) (io.ReadCloser, *gcs.ObjectInfo, error)
	ProcessBacklog(ctx context.Context, limit int) (*BacklogResult, error)
}

// BacklogResult summarizes a backlog sweep.
type BacklogResult struct {
	Scanned   int `json:"scanned"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// ServiceParams wires receipt service dependencies.
type ServiceParams struct {
	Repo       donations.Repository
	Store      gcs.ObjectStore
	Renderer   render.PDFRenderer
	Locks      redis.LockStore
	Dispatcher mailer.Dispatcher
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	Org        config.OrgConfig
	Receipts   config.ReceiptsConfig
}

type service struct {
	repo       donations.Repository
	store      gcs.ObjectStore
	renderer   render.PDFRenderer
	guard      *pipelineGuard
	dispatcher mailer.Dispatcher
	logg       *logger.Logger
	metrics    *metrics.Metrics
	org        config.OrgConfig
	cfg        config.ReceiptsConfig
}

// NewService validates dependencies and returns a receipt service. The mail
// dispatcher is optional; without it receipts are generated but not emailed.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "donations repository required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "object store required")
	}
	if params.Renderer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pdf renderer required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:       params.Repo,
		store:      params.Store,
		renderer:   params.Renderer,
		guard:      newPipelineGuard(params.Locks, params.Receipts.PipelineLockTTL),
		dispatcher: params.Dispatcher,
		logg:       params.Logger,
		metrics:    params.Metrics,
		org:        params.Org,
		cfg:        params.Receipts,
	}, nil
}

// ProcessDonation runs the enrichment pipeline for a completed donation:
// render the receipt PDF, store it, then email it. Failures leave the
// donation completed; only the receipt/email flags stay unset.
func (s *service) ProcessDonation(ctx context.Context, donationID uuid.UUID, force bool) error {
	_, _, err := s.process(ctx, donationID, force, true)
	return err
}

// process is the pipeline core. It reports the donation it acted on and
// whether the receipt email went out during this run.
func (s *service) process(ctx context.Context, donationID uuid.UUID, force, wantEmail bool) (*models.Donation, bool, error) {
	donation, err := s.loadCompleted(ctx, donationID)
	if err != nil {
		return nil, false, err
	}

	ctx = s.logg.WithDonationID(ctx, donation.ID.String())
	ctx = s.logg.WithReceiptNumber(ctx, *donation.ReceiptNumber)

	acquired, release, err := s.guard.acquire(ctx, donation.ID.String())
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire pipeline lock")
	}
	if !acquired {
		s.logg.Info(ctx, "receipt pipeline already running, skipping")
		return donation, false, nil
	}
	defer release()

	// Re-read under the lock: a racing run may have finished the artifacts
	// between our first read and the acquire.
	donation, err = s.loadCompleted(ctx, donationID)
	if err != nil {
		return nil, false, err
	}

	if donation.ReceiptGenerated && !force {
		if donation.EmailSent || !wantEmail || s.dispatcher == nil {
			return donation, false, nil
		}
		if _, err := s.emailStoredReceipt(ctx, donation); err != nil {
			return donation, false, err
		}
		return donation, true, nil
	}

	pdf, objectKey, hash, err := s.generate(ctx, donation)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReceiptsFailed.Inc()
		}
		s.logg.Error(ctx, "receipt generation failed", err)
		return donation, false, err
	}

	if err := s.repo.SetReceiptArtifacts(ctx, donation.ID, objectKey, hash); err != nil {
		if s.metrics != nil {
			s.metrics.ReceiptsFailed.Inc()
		}
		return donation, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record receipt artifacts")
	}
	if s.metrics != nil {
		s.metrics.ReceiptsGenerated.Inc()
	}
	s.logg.Info(ctx, "receipt generated and stored")

	if !wantEmail || s.dispatcher == nil {
		return donation, false, nil
	}
	donation.VerificationHash = &hash
	if _, err := s.sendEmail(ctx, donation, pdf, donation.DonorEmail); err != nil {
		// The receipt exists; delivery can be retried via resend.
		s.logg.Error(ctx, "receipt email failed", err)
		return donation, false, nil
	}
	return donation, true, nil
}

// loadCompleted fetches a donation and insists it is completed with a
// receipt number assigned.
func (s *service) loadCompleted(ctx context.Context, donationID uuid.UUID) (*models.Donation, error) {
	donation, err := s.repo.GetByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load donation")
	}
	if donation.Status != enums.DonationStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "receipts exist only for completed donations")
	}
	if donation.ReceiptNumber == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "completed donation missing receipt number")
	}
	return donation, nil
}

// generate renders and uploads the PDF, returning its bytes, object key and
// verification hash.
func (s *service) generate(ctx context.Context, donation *models.Donation) ([]byte, string, string, error) {
	number := *donation.ReceiptNumber
	hash := VerificationHash(number, donation.DonorName, donation.Amount, donation.DonorEmail, donation.CreatedAt)

	qrURI, err := s.verificationQR(number, hash)
	if err != nil {
		return nil, "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode verification qr")
	}

	doc := receiptDocument{
		OrgName:            s.org.Name,
		RegistrationNumber: s.org.RegistrationNumber,
		PANNumber:          s.org.PANNumber,
		Address:            s.org.Address,
		Phone:              s.org.Phone,
		Email:              s.org.Email,
		Website:            s.org.Website,
		Section80G:         s.org.Section80G,
		ReceiptNumber:      number,
		Date:               receiptDate(donation).Format("02 Jan 2006"),
		FinancialYear:      donations.FinancialYear(receiptDate(donation)),
		DonorName:          donation.DonorName,
		DonorEmail:         donation.DonorEmail,
		Amount:             donation.Amount,
		AmountWords:        AmountInWords(donation.Amount),
		Purpose:            donation.Purpose,
		VerificationHash:   DisplayHash(hash),
		QRDataURI:          template.URL(qrURI),
	}
	if donation.DonorPhone != nil {
		doc.DonorPhone = *donation.DonorPhone
	}
	if donation.DonorAddress != nil {
		doc.DonorAddress = *donation.DonorAddress
	}
	if donation.DonorPAN != nil {
		doc.DonorPAN = *donation.DonorPAN
	}
	if donation.PaymentID != nil {
		doc.PaymentID = *donation.PaymentID
	}

	html, err := renderReceiptHTML(doc)
	if err != nil {
		return nil, "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt html")
	}

	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, "", "", err
	}

	objectKey := s.store.ObjectKey("receipt-" + number + ".pdf")
	if _, err := s.store.Upload(ctx, objectKey, "application/pdf", pdf, map[string]string{
		"donation_id":       donation.ID.String(),
		"receipt_number":    number,
		"verification_hash": hash,
	}); err != nil {
		return nil, "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload receipt pdf")
	}

	return pdf, objectKey, hash, nil
}

func (s *service) verificationQR(receiptNumber, hash string) (string, error) {
	url := s.verifyURL(receiptNumber, hash)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func (s *service) verifyURL(receiptNumber, hash string) string {
	return fmt.Sprintf("%s/verify-receipt/%s?hash=%s", s.cfg.PublicBaseURL, receiptNumber, hash)
}

// sendEmail delivers the receipt and returns the provider message id.
func (s *service) sendEmail(ctx context.Context, donation *models.Donation, pdf []byte, recipient string) (string, error) {
	if s.dispatcher == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "mail delivery is not configured")
	}

	hash := ""
	if donation.VerificationHash != nil {
		hash = *donation.VerificationHash
	}
	email := mailer.ReceiptEmail{
		DonorName:     donation.DonorName,
		DonorEmail:    donation.DonorEmail,
		ReceiptNumber: *donation.ReceiptNumber,
		Amount:        donation.Amount,
		AmountWords:   AmountInWords(donation.Amount),
		Purpose:       donation.Purpose,
		Date:          receiptDate(donation).Format("02 Jan 2006"),
		FinancialYear: donations.FinancialYear(receiptDate(donation)),
		VerifyURL:     s.verifyURL(*donation.ReceiptNumber, hash),
		PDF:           pdf,
	}
	if recipient != "" && recipient != donation.DonorEmail {
		email = email.WithRecipient(recipient)
	}

	messageID, err := s.dispatcher.SendReceiptEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.repo.MarkEmailSent(ctx, donation.ID, messageID); err != nil {
		return messageID, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record email delivery")
	}
	return messageID, nil
}

func (s *service) emailStoredReceipt(ctx context.Context, donation *models.Donation) (string, error) {
	pdf, err := s.downloadPDF(ctx, donation)
	if err != nil {
		return "", err
	}
	return s.sendEmail(ctx, donation, pdf, donation.DonorEmail)
}

func (s *service) downloadPDF(ctx context.Context, donation *models.Donation) ([]byte, error) {
	if donation.ReceiptObjectKey == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt pdf not stored")
	}
	reader, _, err := s.store.NewReader(ctx, *donation.ReceiptObjectKey)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt pdf not found in storage")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "download receipt pdf")
	}
	defer func() { _ = reader.Close() }()

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read receipt pdf")
	}
	return pdf, nil
}

// Verify checks a receipt exists and, when a hash is supplied, recomputes
// the fingerprint from the stored donation fields and compares. Tampering
// with any input field shows up as a mismatch. An absent hash verifies by
// presence alone.
func (s *service) Verify(ctx context.Context, receiptNumber, hash string) (*VerifyResult, error) {
	donation, err := s.findByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		ReceiptNumber: *donation.ReceiptNumber,
		DonorName:     donation.DonorName,
		Amount:        donation.Amount,
		Purpose:       donation.Purpose,
		Currency:      donation.Currency,
		Date:          receiptDate(donation).Format("02 Jan 2006"),
		FinancialYear: donations.FinancialYear(receiptDate(donation)),
		Valid:         true,
	}

	if hash != "" {
		expected := VerificationHash(*donation.ReceiptNumber, donation.DonorName,
			donation.Amount, donation.DonorEmail, donation.CreatedAt)
		result.HashChecked = true
		result.Valid = hash == expected
	}
	return result, nil
}

// Regenerate rebuilds the PDF for a completed donation, keeping the receipt
// number and hash stable. Email delivery is optional.
func (s *service) Regenerate(ctx context.Context, donationID uuid.UUID, sendEmail bool) (*RegenerateResult, error) {
	donation, emailed, err := s.process(ctx, donationID, true, sendEmail)
	if err != nil {
		return nil, err
	}
	result := &RegenerateResult{EmailSent: emailed}
	if donation.ReceiptNumber != nil {
		result.ReceiptNumber = *donation.ReceiptNumber
	}
	return result, nil
}

// Resend emails the stored receipt again, optionally to a different address,
// and returns the provider message id.
func (s *service) Resend(ctx context.Context, receiptNumber, overrideEmail string) (string, error) {
	donation, err := s.findByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return "", err
	}
	if !donation.ReceiptGenerated {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "receipt has not been generated yet")
	}
	if s.dispatcher == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "mail delivery is not configured")
	}

	pdf, err := s.downloadPDF(ctx, donation)
	if err != nil {
		return "", err
	}

	recipient := donation.DonorEmail
	if overrideEmail != "" {
		recipient = overrideEmail
	}
	return s.sendEmail(ctx, donation, pdf, recipient)
}

// Download streams the stored receipt PDF.
func (s *service) Download(ctx context.Context, receiptNumber string) (io.ReadCloser, *gcs.ObjectInfo, error) {
	donation, err := s.findByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, nil, err
	}
	if donation.ReceiptObjectKey == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt pdf not stored")
	}

	reader, info, err := s.store.NewReader(ctx, *donation.ReceiptObjectKey)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt pdf not found in storage")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "download receipt pdf")
	}
	return reader, info, nil
}

// ProcessBacklog sweeps completed donations whose receipt or email is still
// missing and runs the pipeline for each. Per-donation failures are collected
// rather than aborting the sweep.
func (s *service) ProcessBacklog(ctx context.Context, limit int) (*BacklogResult, error) {
	rows, err := s.repo.ListMissingReceipts(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipt backlog")
	}

	result := &BacklogResult{Scanned: len(rows)}
	var errs []error
	for i := range rows {
		if err := s.ProcessDonation(ctx, rows[i].ID, false); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("donation %s: %w", rows[i].ID, err))
			continue
		}
		result.Processed++
	}

	if combined := multierr.Combine(errs...); combined != nil {
		s.logg.Error(ctx, "receipt backlog sweep finished with failures", combined)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"scanned":   result.Scanned,
		"processed": result.Processed,
		"failed":    result.Failed,
	}), "receipt backlog sweep finished")
	return result, nil
}

func (s *service) findByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Donation, error) {
	if receiptNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt number required")
	}
	donation, err := s.repo.GetByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
	}
	if donation.Status != enums.DonationStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	return donation, nil
}

// receiptDate prefers the completion time; rows completed before the column
// existed fall back to creation time.
func receiptDate(donation *models.Donation) time.Time {
	if donation.CompletedAt != nil {
		return donation.CompletedAt.UTC()
	}
	return donation.CreatedAt.UTC()
}
