package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/infrastructure/metrics"
	"ideanest-backend/internal/infrastructure/storage"
	"ideanest-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ContentType = "application/pdf"
	MaxSize     = 5 << 20
	KeyPrefix   = "mou/"

	urlAttempts = 3
)

// Upload is the file handed to the service.
type Upload struct {
	ContentType string
	Size        int64
	Data        []byte
}

// Service validates and stores MOU documents. It never touches investment records.
type Service struct {
	Store   storage.ObjectStore
	Metrics *metrics.Registry
	// URLBackoff is the wait between URL retrieval attempts (1s when zero).
	URLBackoff time.Duration
	Now        func() time.Time

	lastStamp atomic.Int64
}

// Upload stores f for the given investment and party and returns its reference.
// Type and size are checked before the object store is contacted.
func (s *Service) Upload(ctx context.Context, investmentID uuid.UUID, party domain.Party, f Upload) (domain.Document, error) {
	doc, err := s.upload(ctx, investmentID, party, f)
	s.Metrics.Upload(metrics.ResultOf(err, func(err error) bool {
		k := domain.KindOf(err)
		return k == domain.ErrInvalidFileType || k == domain.ErrFileTooLarge || k == domain.ErrValidation
	}))
	return doc, err
}

func (s *Service) upload(ctx context.Context, investmentID uuid.UUID, party domain.Party, f Upload) (domain.Document, error) {
	if party != domain.PartyInvestor && party != domain.PartyCreator {
		return domain.Document{}, domain.Validationf("role must be investor or creator")
	}
	if mediaType(f.ContentType) != ContentType {
		return domain.Document{}, domain.Errorf(domain.ErrInvalidFileType, "Only PDF documents are accepted")
	}
	size := f.Size
	if int64(len(f.Data)) > size {
		size = int64(len(f.Data))
	}
	if size > MaxSize {
		return domain.Document{}, &domain.Error{Kind: domain.ErrFileTooLarge, Message: domain.FileTooLargeMessage}
	}
	if len(f.Data) == 0 {
		return domain.Document{}, domain.Validationf("Document is empty")
	}

	key := s.Key(investmentID, party)
	sum := sha256.Sum256(f.Data)
	if err := s.Store.Put(ctx, key, f.Data, ContentType); err != nil {
		log.Error().Err(err).Str("key", key).Msg("document upload failed")
		return domain.Document{}, domain.Errorf(domain.ErrUpload, "Document upload failed")
	}

	backoff := s.URLBackoff
	if backoff == 0 {
		backoff = time.Second
	}
	var url string
	err := retry.Do(ctx, retry.Policy{Name: "document url", Attempts: urlAttempts, Backoff: backoff}, func(ctx context.Context) error {
		var err error
		url, err = s.Store.URL(ctx, key)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("document url unavailable")
		return domain.Document{}, domain.Errorf(domain.ErrUpload, "Document was stored but its URL could not be retrieved")
	}
	return domain.Document{URL: url, Key: key, SHA256: hex.EncodeToString(sum[:])}, nil
}

// Link reissues a download link for a stored document key.
func (s *Service) Link(ctx context.Context, key string) (string, error) {
	return s.Store.Link(ctx, key)
}

// Key builds mou/{investmentId}_{role}_{timestamp}.pdf. Timestamps are Unix
// nanoseconds, strictly increasing within the process.
func (s *Service) Key(investmentID uuid.UUID, party domain.Party) string {
	return fmt.Sprintf("%s%s_%s_%d.pdf", KeyPrefix, investmentID, party, s.stamp())
}

func (s *Service) stamp() int64 {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ts := now().UnixNano()
	for {
		last := s.lastStamp.Load()
		next := ts
		if next <= last {
			next = last + 1
		}
		if s.lastStamp.CompareAndSwap(last, next) {
			return next
		}
	}
}

func mediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
