// Package dynamicimage renders <img> tags for attachments at arbitrary
// sizes, generating and recording the size on first use.
package dynamicimage

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/vortechron/go-dynamic-image/medialibrary"
	"github.com/vortechron/go-dynamic-image/models"
	"github.com/vortechron/go-dynamic-image/shortcode"
)

// Tag is the shortcode name handled by Register.
const Tag = "dynamic_image"

// Option is a function that configures Options
type Option func(*Options)

// Options holds the rendering configuration
type Options struct {
	// Debug allows error messages to be shown to editors.
	Debug bool
	// Crop fills the requested box exactly instead of fitting inside it.
	Crop bool
}

func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

func WithCrop(crop bool) Option {
	return func(o *Options) {
		o.Crop = crop
	}
}

func newOptions(opts ...Option) *Options {
	o := &Options{Crop: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Image is a single dynamic image request.
type Image struct {
	lib    medialibrary.MediaLibrary
	attrs  Attributes
	opts   *Options
	logger medialibrary.Logger
}

// New sanitises raw and prepares an image backed by lib.
func New(lib medialibrary.MediaLibrary, raw map[string]string, opts ...Option) *Image {
	return &Image{
		lib:    lib,
		attrs:  Sanitize(raw),
		opts:   newOptions(opts...),
		logger: lib.GetLogger(),
	}
}

func (i *Image) Attributes() Attributes {
	return i.attrs
}

// Get resolves the source to an attachment, finds or generates a size of
// exactly Width x Height and returns the <img> markup for it.
//
// URLs outside the upload directory are returned as markup untouched. A
// source that does not resolve yields an *AttachmentNotFoundError. When
// the size cannot be generated the original file is used.
func (i *Image) Get(ctx context.Context) (string, error) {
	a := i.attrs

	hw := ""
	if a.HWMarkup {
		hw = HWString(a.Width, a.Height)
	}

	id, src, external, err := i.resolve(ctx)
	if err != nil {
		return "", err
	}
	if external {
		i.logger.Debug("Image %s is outside the upload directory", src)
		return Markup(src, hw, a.Classes), nil
	}

	meta, err := i.lib.GetAttachmentMetadata(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get attachment metadata: %w", err)
	}

	if name, size, ok := matchSize(meta, a.Width, a.Height); ok {
		i.logger.Debug("Using size %s of media ID %d", name, id)
		return Markup(replaceBase(src, size.File), hw, a.Classes), nil
	}

	return Markup(i.generate(ctx, id, meta, src), hw, a.Classes), nil
}

// resolve returns the attachment ID and URL of the source. external is set
// when src lies outside the upload directory.
func (i *Image) resolve(ctx context.Context) (id uint64, src string, external bool, err error) {
	a := i.attrs

	if a.ByID {
		src, err = i.lib.GetAttachmentURL(ctx, a.ID)
		if errors.Is(err, medialibrary.ErrMediaNotFound) {
			return 0, "", false, newAttachmentNotFound(strconv.FormatUint(a.ID, 10))
		}
		if err != nil {
			return 0, "", false, fmt.Errorf("failed to get attachment URL: %w", err)
		}
		return a.ID, src, false, nil
	}

	base := i.lib.UploadBaseURL()
	if base == "" || !strings.HasPrefix(a.Src, base+"/") {
		return 0, a.Src, true, nil
	}

	file := strings.TrimPrefix(a.Src, base+"/")
	if j := strings.IndexAny(file, "?#"); j >= 0 {
		file = file[:j]
	}

	id, err = i.lib.FindAttachmentIDByFile(ctx, file)
	if err != nil {
		return 0, "", false, fmt.Errorf("failed to find attachment: %w", err)
	}
	if id == 0 {
		return 0, "", false, newAttachmentNotFound(file)
	}

	return id, a.Src, false, nil
}

// matchSize looks for a size of exactly width x height. Names are checked
// in sorted order so the result does not depend on map iteration.
func matchSize(meta *models.AttachmentMetadata, width, height int) (string, models.ImageSize, bool) {
	if meta == nil {
		return "", models.ImageSize{}, false
	}

	names := make([]string, 0, len(meta.Sizes))
	for name := range meta.Sizes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		size := meta.Sizes[name]
		if size.Width == width && size.Height == height {
			return name, size, true
		}
	}
	return "", models.ImageSize{}, false
}

// generate makes a new size, records it in the attachment metadata and
// the backup sizes, and returns the URL to use. On failure src is
// returned unchanged.
func (i *Image) generate(ctx context.Context, id uint64, meta *models.AttachmentMetadata, src string) string {
	a := i.attrs

	size, err := i.lib.MakeIntermediateSize(ctx, id, a.Width, a.Height, i.opts.Crop)
	if err != nil {
		i.logger.Debug("Not resizing media ID %d to %dx%d: %v", id, a.Width, a.Height, err)
		return src
	}

	key := SizeKey(a.Width, a.Height)

	if meta == nil {
		meta = &models.AttachmentMetadata{}
		if _, file, err := i.lib.GetAttachedFile(ctx, id); err == nil {
			meta.File = file
		}
	}
	if meta.Sizes == nil {
		meta.Sizes = make(map[string]models.ImageSize)
	}
	meta.Sizes[key] = *size

	if err := i.lib.UpdateAttachmentMetadata(ctx, id, meta); err != nil {
		i.logger.Warning("Failed to record size %s for media ID %d: %v", key, id, err)
	}

	backup := models.BackupSizes{}
	if _, err := i.lib.GetMeta(ctx, id, models.MetaKeyBackupSizes, &backup); err != nil {
		i.logger.Warning("Failed to read backup sizes of media ID %d: %v", id, err)
		backup = models.BackupSizes{}
	}
	if backup == nil {
		backup = models.BackupSizes{}
	}
	backup[key] = *size

	if err := i.lib.UpdateMeta(ctx, id, models.MetaKeyBackupSizes, backup); err != nil {
		i.logger.Warning("Failed to record backup size %s for media ID %d: %v", key, id, err)
	}

	i.logger.Info("Generated size %s (%s) for media ID %d", key, size.File, id)
	return replaceBase(src, size.File)
}

// Render returns the markup, or for a failed image the error message when
// viewer may see it and "" otherwise.
func (i *Image) Render(ctx context.Context, viewer Viewer) string {
	out, err := i.Get(ctx)
	if err == nil {
		return out
	}

	i.logger.Debug("Dynamic image failed: %v", err)
	if !viewer.CanSeeErrors(i.opts.Debug) {
		return ""
	}
	return html.EscapeString(err.Error())
}

// DynamicImageResize renders an image from template code for the viewer
// carried by ctx.
func DynamicImageResize(ctx context.Context, lib medialibrary.MediaLibrary, raw map[string]string, opts ...Option) string {
	return New(lib, raw, opts...).Render(ctx, ViewerFromContext(ctx))
}

// Register adds the dynamic_image shortcode to reg.
func Register(reg *shortcode.Registry, lib medialibrary.MediaLibrary, opts ...Option) error {
	return reg.Add(Tag, func(ctx context.Context, attrs map[string]string, _ string, _ string) string {
		return DynamicImageResize(ctx, lib, attrs, opts...)
	})
}
