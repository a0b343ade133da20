package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contactbook/internal/contact"
	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/model"
)

// 連絡先詳細画面のフォームで指定される操作。
const (
	intentFavorite = "favorite"
	intentDelete   = "delete"
)

// ContactServiceInterface は連絡先ハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	List(ctx context.Context, userID, query string) (*contact.ContactList, error)
	Create(ctx context.Context, userID string) (*model.Contact, error)
	Get(ctx context.Context, userID, id string) (*model.Contact, error)
	UpdateName(ctx context.Context, userID, id string, input model.ContactNameInput) error
	ToggleFavorite(ctx context.Context, userID, id string) (bool, error)
	Delete(ctx context.Context, userID, id string) error
}

// ContactHandler は連絡先のHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

type contactSummaryResponse struct {
	ID        string  `json:"id"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	AvatarURL *string `json:"avatarUrl"`
	Favorite  bool    `json:"favorite"`
}

type contactListResponse struct {
	Contacts      []contactSummaryResponse `json:"contacts"`
	ContactsCount int                      `json:"contactsCount"`
}

type contactDetail struct {
	ID            string  `json:"id"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	AvatarURL     *string `json:"avatarUrl"`
	Favorite      bool    `json:"favorite"`
	Title         *string `json:"title"`
	Company       *string `json:"company"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Location      *string `json:"location"`
	TwitterHandle *string `json:"twitterHandle"`
	WebsiteURL    *string `json:"websiteUrl"`
	LinkedinURL   *string `json:"linkedinUrl"`
	About         *string `json:"about"`
}

type contactDetailResponse struct {
	Contact contactDetail `json:"contact"`
}

// contactEditForm は編集フォームの初期値。フォームの項目名に合わせてfirst/lastとする。
type contactEditForm struct {
	ID        string  `json:"id"`
	First     *string `json:"first"`
	Last      *string `json:"last"`
	AvatarURL *string `json:"avatarUrl"`
	Favorite  bool    `json:"favorite"`
}

type contactEditResponse struct {
	Contact contactEditForm `json:"contact"`
}

// List はログインユーザーの連絡先一覧を返す。qが指定された場合は氏名で絞り込む。
// GET /contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := contactListResponse{
		Contacts:      make([]contactSummaryResponse, len(list.Contacts)),
		ContactsCount: list.Total,
	}
	for i, c := range list.Contacts {
		resp.Contacts[i] = contactSummaryResponse{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			AvatarURL: c.AvatarURL,
			Favorite:  c.Favorite,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は空の連絡先を作成し、編集画面へリダイレクトする。
// POST /contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Create(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/contacts/"+c.ID+"/edit", http.StatusFound)
}

// Get は連絡先の詳細を返す。
// GET /contacts/{contactID}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "contactID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, contactDetailResponse{Contact: contactDetail{
		ID:            c.ID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		AvatarURL:     c.AvatarURL,
		Favorite:      c.Favorite,
		Title:         c.Title,
		Company:       c.Company,
		Email:         c.Email,
		Phone:         c.Phone,
		Location:      c.Location,
		TwitterHandle: c.TwitterHandle,
		WebsiteURL:    c.WebsiteURL,
		LinkedinURL:   c.LinkedinURL,
		About:         c.About,
	}})
}

// Action はintentに応じてお気に入りの切り替えまたは削除を行う。
// POST /contacts/{contactID}
func (h *ContactHandler) Action(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}
	contactID := chi.URLParam(r, "contactID")

	switch intent := r.PostFormValue("intent"); intent {
	case intentFavorite:
		if _, err := h.service.ToggleFavorite(r.Context(), userID, contactID); err != nil {
			handleServiceError(w, err)
			return
		}
		writeNull(w)

	case intentDelete:
		if err := h.service.Delete(r.Context(), userID, contactID); err != nil {
			handleServiceError(w, err)
			return
		}
		http.Redirect(w, r, "/contacts", http.StatusFound)

	default:
		// 存在しない連絡先は操作の種別より先に404とする
		if _, err := h.service.Get(r.Context(), userID, contactID); err != nil {
			handleServiceError(w, err)
			return
		}
		handleServiceError(w, model.NewInvalidIntentError(intent))
	}
}

// EditForm は編集フォームの初期値を返す。
// GET /contacts/{contactID}/edit
func (h *ContactHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "contactID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, contactEditResponse{Contact: contactEditForm{
		ID:        c.ID,
		First:     c.FirstName,
		Last:      c.LastName,
		AvatarURL: c.AvatarURL,
		Favorite:  c.Favorite,
	}})
}

// Update は連絡先の氏名とアバターURLを更新し、詳細画面へリダイレクトする。
// POST /contacts/{contactID}/edit
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}
	contactID := chi.URLParam(r, "contactID")

	// 1. 連絡先の存在確認
	if _, err := h.service.Get(r.Context(), userID, contactID); err != nil {
		handleServiceError(w, err)
		return
	}

	// 2. フォームの検証
	form := parseContactForm(r)
	if err := validateForm(form); err != nil {
		handleServiceError(w, err)
		return
	}

	// 3. 更新
	input := model.ContactNameInput{
		FirstName: nullIfEmpty(form.First),
		LastName:  nullIfEmpty(form.Last),
		AvatarURL: nullIfEmpty(form.AvatarURL),
	}
	if err := h.service.UpdateName(r.Context(), userID, contactID, input); err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/contacts/"+contactID, http.StatusFound)
}

// requireContextUserID はコンテキストからユーザーIDを取得する。
// RequireUserミドルウェアを通過していない場合は500を書き込みfalseを返す。
func requireContextUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return "", false
	}
	return userID, true
}
