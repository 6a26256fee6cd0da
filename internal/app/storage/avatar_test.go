package storage

import (
	"testing"

	"relaychat/internal/pkg/errs"
)

func TestValidateAvatarSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		size     int64
		wantCode int
	}{
		{name: "valid", size: 1024, wantCode: 0},
		{name: "zero", size: 0, wantCode: errs.ErrInvalidParams},
		{name: "negative", size: -1, wantCode: errs.ErrInvalidParams},
		{name: "at limit", size: MaxAvatarSize, wantCode: 0},
		{name: "over limit", size: MaxAvatarSize + 1, wantCode: errs.ErrAvatarTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAvatarSize(tt.size)
			if tt.wantCode == 0 {
				if err != nil {
					t.Errorf("ValidateAvatarSize(%d) = %v, want nil", tt.size, err)
				}
				return
			}
			if err == nil || err.Code != tt.wantCode {
				t.Errorf("ValidateAvatarSize(%d) = %v, want code %d", tt.size, err, tt.wantCode)
			}
		})
	}
}

func TestValidateAvatarType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		mimeType string
		wantOK   bool
	}{
		{name: "png", fileName: "me.png", mimeType: "image/png", wantOK: true},
		{name: "jpeg with jpg ext", fileName: "me.jpg", mimeType: "image/jpeg", wantOK: true},
		{name: "uppercase mime", fileName: "me.png", mimeType: "IMAGE/PNG", wantOK: true},
		{name: "disallowed mime", fileName: "me.svg", mimeType: "image/svg+xml", wantOK: false},
		{name: "extension mismatch", fileName: "me.png", mimeType: "image/jpeg", wantOK: false},
		{name: "no extension", fileName: "me", mimeType: "image/png", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAvatarType(tt.fileName, tt.mimeType)
			if tt.wantOK && err != nil {
				t.Errorf("ValidateAvatarType(%q, %q) = %v, want nil", tt.fileName, tt.mimeType, err)
			}
			if !tt.wantOK && err == nil {
				t.Errorf("ValidateAvatarType(%q, %q) = nil, want error", tt.fileName, tt.mimeType)
			}
		})
	}
}
