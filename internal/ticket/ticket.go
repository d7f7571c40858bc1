// Package ticket issues signed ticket codes for bookings.  A ticket code
// is an HS256 JWT naming the booking, schedule and seat; the cinema
// gate can verify it offline with the shared secret.  Changing a booking
// re-issues the ticket because the schedule and seat claims change.
package ticket

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ErrDisabled is returned by a nil Issuer.
var ErrDisabled = errors.New("ticket issuance disabled")

// Claims is the payload of a ticket code.
type Claims struct {
	BookingID  uint64 `json:"bid"`
	ScheduleID uint64 `json:"sch"`
	SeatID     uint64 `json:"seat"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies ticket codes.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer, or nil when secret is empty.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a ticket code for b.
func (i *Issuer) Issue(b model.Booking) (string, error) {
	if i == nil {
		return "", ErrDisabled
	}
	now := i.now().UTC()
	claims := Claims{
		BookingID:  b.ID,
		ScheduleID: b.ScheduleID,
		SeatID:     b.SeatID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(b.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses a ticket code, checking the signature, the algorithm and
// the expiry.
func (i *Issuer) Verify(code string) (*Claims, error) {
	if i == nil {
		return nil, ErrDisabled
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(code, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket: %w", err)
	}
	return claims, nil
}

// RenderQR returns the code as a QR block built from half-height
// characters, printable on a terminal.
func RenderQR(code string) (string, error) {
	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	return qr.ToSmallString(false), nil
}
