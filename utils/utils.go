package utils

import (
	"crypto/md5"
	"encoding/hex"
	"math/rand"
	"net/url"
	"path"
	"strings"
	"time"

	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/pkg/errors"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

var random = rand.New(rand.NewSource(time.Now().UnixNano()))

// RandomAlphabetString returns a lower case random string of length n.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[random.Intn(len(alphabet))]
	}
	return string(b)
}

func TextToMd5Hash(text string) (string, error) {
	hasher := md5.New()
	if _, err := hasher.Write([]byte(text)); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// GetUrlExtNameWithDot returns ".jpg" for "https://a.com/b/c.jpg?x=1", empty
// string if the url path carries no extension.
func GetUrlExtNameWithDot(rawUrl string) string {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return path.Ext(rawUrl)
	}
	return path.Ext(u.Path)
}

// UrlPathToFileName flattens the path of an url into a single file name:
// "https://cdn.x/v/t51/abc.jpg?s=1" becomes "v-t51-abc.jpg".
func UrlPathToFileName(rawUrl string) (string, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return "", errors.Wrap(err, "invalid url "+rawUrl)
	}
	name := strings.TrimPrefix(strings.ReplaceAll(u.Path, "/", "-"), "-")
	if name == "" {
		return "", errors.New("url has empty path: " + rawUrl)
	}
	return name, nil
}

// ImmediatePrintError logs the error at the place it is raised and returns it
// so the caller can propagate.
func ImmediatePrintError(err error) error {
	if err != nil {
		Logger.Log.Errorln(err)
	}
	return err
}
