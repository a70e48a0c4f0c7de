package util

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAllowedImage(t *testing.T) {
	cases := map[string]bool{
		"photo.png":        true,
		"photo.JPG":        true,
		"photo.Jpeg":       true,
		"anim.gif":         true,
		"photo.exe":        false,
		"photo":            false,
		"archive.png.zip":  false,
		"../../etc/passwd": false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsAllowedImage(name), name)
	}
}

func TestGenerateStorageName(t *testing.T) {
	a := GenerateStorageName("../../My Cat.JPEG")
	b := GenerateStorageName("../../My Cat.JPEG")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpeg"))
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "Cat")
	assert.Len(t, a, 36+len(".jpeg"))
}

func TestValidateNotBlank(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("notblank", ValidateNotBlank))

	type form struct {
		Title string `validate:"notblank"`
	}
	assert.NoError(t, v.Struct(form{Title: "Cats"}))
	assert.Error(t, v.Struct(form{Title: "   "}))
}
