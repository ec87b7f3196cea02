package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mhutchin/wordrush/internal/api/apierr"
	"github.com/mhutchin/wordrush/internal/api/response"
	"github.com/mhutchin/wordrush/internal/services/dictionary"
)

// WordsHandler handles word validation endpoints
type WordsHandler struct {
	dictionary dictionary.ServiceInterface
}

// NewWordsHandler creates a new words handler
func NewWordsHandler(dict dictionary.ServiceInterface) *WordsHandler {
	return &WordsHandler{
		dictionary: dict,
	}
}

// Validate handles GET /api/words/validate/{word}/{category}
func (h *WordsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	word := vars["word"]
	category := vars["category"]

	valid, err := h.dictionary.IsValidWord(word, category)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.WordValidation{
		Word:     word,
		Category: category,
		Valid:    valid,
	})
}
