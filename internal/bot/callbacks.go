package bot

import (
	"fmt"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/services"
	"github.com/pkg/errors"
	"strconv"
	"strings"
)

// Telegram rejects callback data longer than 64 bytes.
const maxCallbackDataLength = 64

const (
	pageCallbackPrefix     = "page"
	vacancyCallbackPrefix  = "vac"
	documentCallbackPrefix = "doc"
	noopCallbackData       = "noop"
)

var errInvalidCallback = errors.New("invalid callback data")

type callbackKind int

const (
	callbackNoop callbackKind = iota
	callbackPage
	callbackVacancy
	callbackDocument
)

type callbackData struct {
	kind      callbackKind
	page      int
	query     string
	vacancyID uint
	docType   models.DocumentType
	action    services.DocumentAction
}

// pageCallback embeds the query when it fits; an empty query means the latest search of the user.
func pageCallback(page int, query string) string {
	data := fmt.Sprintf("%s:%d:%s", pageCallbackPrefix, page, query)
	if len(data) > maxCallbackDataLength {
		return fmt.Sprintf("%s:%d:", pageCallbackPrefix, page)
	}
	return data
}

func vacancyCallback(vacancyID uint) string {
	return fmt.Sprintf("%s:%d", vacancyCallbackPrefix, vacancyID)
}

func documentCallback(docType models.DocumentType, vacancyID uint, action services.DocumentAction) string {
	return fmt.Sprintf("%s:%d:%d:%s", documentCallbackPrefix, docType, vacancyID, action)
}

func parseCallback(data string) (callbackData, error) {

	if data == noopCallbackData {
		return callbackData{kind: callbackNoop}, nil
	}

	prefix, rest, _ := strings.Cut(data, ":")
	switch prefix {
	case pageCallbackPrefix:
		pageText, query, found := strings.Cut(rest, ":")
		page, err := strconv.Atoi(pageText)
		if !found || err != nil || page < 0 {
			return callbackData{}, errors.Wrap(errInvalidCallback, data)
		}
		return callbackData{kind: callbackPage, page: page, query: query}, nil

	case vacancyCallbackPrefix:
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil || id == 0 {
			return callbackData{}, errors.Wrap(errInvalidCallback, data)
		}
		return callbackData{kind: callbackVacancy, vacancyID: uint(id)}, nil

	case documentCallbackPrefix:
		parts := strings.Split(rest, ":")
		if len(parts) != 3 {
			return callbackData{}, errors.Wrap(errInvalidCallback, data)
		}
		docType, typeErr := strconv.Atoi(parts[0])
		id, idErr := strconv.ParseUint(parts[1], 10, 64)
		action := services.DocumentAction(parts[2])
		if typeErr != nil || idErr != nil || id == 0 || !models.DocumentType(docType).Valid() || !action.Valid() {
			return callbackData{}, errors.Wrap(errInvalidCallback, data)
		}
		return callbackData{kind: callbackDocument, vacancyID: uint(id), docType: models.DocumentType(docType), action: action}, nil
	}

	return callbackData{}, errors.Wrap(errInvalidCallback, data)
}
