package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/auth"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/gcp"
)

const avatarSize = 512

// avatarPalette is indexed by a byte of the user id, so the same user
// always renders on the same background.
var avatarPalette = []color.NRGBA{
	{R: 0x2E, G: 0x86, B: 0x5C, A: 0xFF},
	{R: 0x1D, G: 0x6F, B: 0xA3, A: 0xFF},
	{R: 0xB0, G: 0x5C, B: 0x2E, A: 0xFF},
	{R: 0x7A, G: 0x3E, B: 0x9D, A: 0xFF},
	{R: 0xC2, G: 0x3B, B: 0x5A, A: 0xFF},
	{R: 0x3E, G: 0x6B, B: 0x3A, A: 0xFF},
	{R: 0x5A, G: 0x5A, B: 0x8F, A: 0xFF},
	{R: 0x8A, G: 0x6D, B: 0x1F, A: 0xFF},
}

type AvatarService interface {
	CreateAndUploadUserAvatar(dbc dbctx.Context, user *types.User) error
	CreateAndUploadUserAvatarFromImage(dbc dbctx.Context, user *types.User, raw []byte) error
	GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	userRepo      auth.UserRepo
	bucketService gcp.BucketService
	fontFace      font.Face
}

func NewAvatarService(log *logger.Logger, userRepo auth.UserRepo, bucketService gcp.BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("Env var AVATAR_FONT is empty")
	}
	serviceLog.Info("Loading avatar font", "font", fontPath)

	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:           serviceLog,
		userRepo:      userRepo,
		bucketService: bucketService,
		fontFace:      face,
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(dbc dbctx.Context, user *types.User) error {
	buf, err := as.GenerateUserAvatar(user)
	if err != nil {
		return err
	}
	return as.uploadAndPoint(dbc, user, buf)
}

func (as *avatarService) CreateAndUploadUserAvatarFromImage(dbc dbctx.Context, user *types.User, raw []byte) error {
	if user == nil || user.ID == uuid.Nil {
		return fmt.Errorf("user required")
	}
	processed, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return err
	}
	return as.uploadAndPoint(dbc, user, processed)
}

func (as *avatarService) uploadAndPoint(dbc dbctx.Context, user *types.User, buf bytes.Buffer) error {
	oldKey := strings.TrimSpace(user.AvatarBucketKey)

	// Versioned key so CDN and browser caches never serve a stale avatar.
	newKey := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())

	if err := as.bucketService.UploadFile(dbc, gcp.BucketCategoryAvatar, newKey, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}

	user.AvatarBucketKey = newKey
	user.AvatarURL = as.bucketService.GetPublicURL(gcp.BucketCategoryAvatar, newKey)

	if err := as.userRepo.UpdateAvatar(dbc, user.ID, newKey, user.AvatarURL); err != nil {
		return err
	}

	// Best-effort delete of the replaced object.
	if oldKey != "" && oldKey != newKey {
		if err := as.bucketService.DeleteFile(dbc, gcp.BucketCategoryAvatar, oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
	dc := gg.NewContext(avatarSize, avatarSize)

	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	dc.SetColor(pickAvatarColor(user.ID))
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	initials := computeInitials(user.FirstName, user.LastName)

	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(avatarSize)/2, float64(avatarSize)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func pickAvatarColor(id uuid.UUID) color.NRGBA {
	return avatarPalette[int(id[0])%len(avatarPalette)]
}

func computeInitials(firstName, lastName string) string {
	var b strings.Builder
	if f := strings.TrimSpace(firstName); f != "" {
		b.WriteString(strings.ToUpper(f[:1]))
	}
	if l := strings.TrimSpace(lastName); l != "" {
		b.WriteString(strings.ToUpper(l[:1]))
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

func loadFontFace(path string, points float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: points}), nil
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square.
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}
