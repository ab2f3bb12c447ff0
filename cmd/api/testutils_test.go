package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"reviewhub/proj/internal/config"
	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/services"
	"reviewhub/proj/internal/services/auth"
	"reviewhub/proj/internal/services/catalog"
	"reviewhub/proj/internal/services/reviews"
	"reviewhub/proj/internal/services/users"
	"reviewhub/proj/internal/storage"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

// syncTasks runs submitted tasks inline so tests can assert on their
// side effects without waiting on a worker pool.
type syncTasks struct{}

func (syncTasks) Add(task func()) { task() }

type sentMail struct {
	Recipient string
	TmplName  string
	TmplData  any
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) Send(recipient string, tmplName string, tmplData any) error {
	m.sent = append(m.sent, sentMail{recipient, tmplName, tmplData})
	return nil
}

func paginate[T any](items []T, f filters.Filters) ([]T, int) {
	total := len(items)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Limit()
	if end > total {
		end = total
	}
	return items[start:end], total
}

type fakeUsersStorage struct {
	nextID int64
	users  []*models.User
}

func (s *fakeUsersStorage) Insert(_ context.Context, user *models.User) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, &storage.ConstraintError{Constraint: "users_email_key"}
		}
		if u.Username == user.Username {
			return nil, &storage.ConstraintError{Constraint: "users_username_key"}
		}
	}
	s.nextID++
	stored := *user
	stored.ID = s.nextID
	stored.CreatedAt = time.Now()
	s.users = append(s.users, &stored)
	res := stored
	return &res, nil
}

func (s *fakeUsersStorage) GetByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			res := *u
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeUsersStorage) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			res := *u
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeUsersStorage) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			res := *u
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeUsersStorage) List(_ context.Context, search string, f filters.Filters) ([]models.User, int, error) {
	var matched []models.User
	for _, u := range s.users {
		if search == "" || strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	page, total := paginate(matched, f)
	return page, total, nil
}

func (s *fakeUsersStorage) Update(_ context.Context, user *models.User) (*models.User, error) {
	for i, u := range s.users {
		if u.ID != user.ID {
			continue
		}
		for _, other := range s.users {
			if other.ID == user.ID {
				continue
			}
			if other.Email == user.Email {
				return nil, &storage.ConstraintError{Constraint: "users_email_key"}
			}
			if other.Username == user.Username {
				return nil, &storage.ConstraintError{Constraint: "users_username_key"}
			}
		}
		stored := *user
		s.users[i] = &stored
		res := stored
		return &res, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeUsersStorage) Delete(_ context.Context, username string) error {
	for i, u := range s.users {
		if u.Username == username {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeCategoriesStorage struct {
	nextID     int64
	categories []models.Category
}

func (s *fakeCategoriesStorage) Insert(_ context.Context, name, slug string) (*models.Category, error) {
	for _, c := range s.categories {
		if c.Slug == slug {
			return nil, storage.ErrConflict
		}
	}
	s.nextID++
	category := models.Category{ID: s.nextID, Name: name, Slug: slug}
	s.categories = append(s.categories, category)
	return &category, nil
}

func (s *fakeCategoriesStorage) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range s.categories {
		if strings.EqualFold(c.Slug, slug) {
			res := c
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeCategoriesStorage) List(_ context.Context, search string, f filters.Filters) ([]models.Category, int, error) {
	var matched []models.Category
	for _, c := range s.categories {
		if search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			matched = append(matched, c)
		}
	}
	page, total := paginate(matched, f)
	return page, total, nil
}

func (s *fakeCategoriesStorage) Delete(_ context.Context, slug string) error {
	for i, c := range s.categories {
		if c.Slug == slug {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeGenresStorage struct {
	nextID int64
	genres []models.Genre
}

func (s *fakeGenresStorage) Insert(_ context.Context, name, slug string) (*models.Genre, error) {
	for _, g := range s.genres {
		if g.Slug == slug {
			return nil, storage.ErrConflict
		}
	}
	s.nextID++
	genre := models.Genre{ID: s.nextID, Name: name, Slug: slug}
	s.genres = append(s.genres, genre)
	return &genre, nil
}

func (s *fakeGenresStorage) GetBySlugs(_ context.Context, slugs []string) ([]models.Genre, error) {
	var matched []models.Genre
	for _, g := range s.genres {
		for _, slug := range slugs {
			if g.Slug == slug {
				matched = append(matched, g)
				break
			}
		}
	}
	return matched, nil
}

func (s *fakeGenresStorage) List(_ context.Context, search string, f filters.Filters) ([]models.Genre, int, error) {
	var matched []models.Genre
	for _, g := range s.genres {
		if search == "" || strings.Contains(strings.ToLower(g.Name), strings.ToLower(search)) {
			matched = append(matched, g)
		}
	}
	page, total := paginate(matched, f)
	return page, total, nil
}

func (s *fakeGenresStorage) Delete(_ context.Context, slug string) error {
	for i, g := range s.genres {
		if g.Slug == slug {
			s.genres = append(s.genres[:i], s.genres[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *fakeGenresStorage) byID(id int64) (models.Genre, bool) {
	for _, g := range s.genres {
		if g.ID == id {
			return g, true
		}
	}
	return models.Genre{}, false
}

type fakeTitlesStorage struct {
	nextID      int64
	titles      []*models.Title
	titleGenres map[int64][]int64
	genres      *fakeGenresStorage
	categories  *fakeCategoriesStorage
}

func (s *fakeTitlesStorage) Insert(_ context.Context, title *models.Title, genreIDs []int64) (*models.Title, error) {
	s.nextID++
	stored := *title
	stored.ID = s.nextID
	stored.CreatedAt = time.Now()
	s.titles = append(s.titles, &stored)
	s.titleGenres[stored.ID] = genreIDs
	res := stored
	return &res, nil
}

func (s *fakeTitlesStorage) Get(_ context.Context, id int64) (*models.Title, error) {
	for _, t := range s.titles {
		if t.ID == id {
			res := *t
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeTitlesStorage) List(_ context.Context, f filters.TitleFilters) ([]models.Title, int, error) {
	var matched []models.Title
	for _, t := range s.titles {
		if f.Year != 0 && t.Year != f.Year {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Category != "" {
			category, err := s.categories.GetBySlug(context.Background(), f.Category)
			if err != nil || t.CategoryID == nil || *t.CategoryID != category.ID {
				continue
			}
		}
		if f.Genre != "" && !s.hasGenreSlug(t.ID, f.Genre) {
			continue
		}
		matched = append(matched, *t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Year != matched[j].Year {
			return matched[i].Year > matched[j].Year
		}
		return matched[i].Name < matched[j].Name
	})
	page, total := paginate(matched, f.Filters)
	return page, total, nil
}

func (s *fakeTitlesStorage) hasGenreSlug(titleID int64, slug string) bool {
	for _, genreID := range s.titleGenres[titleID] {
		if g, ok := s.genres.byID(genreID); ok && strings.EqualFold(g.Slug, slug) {
			return true
		}
	}
	return false
}

func (s *fakeTitlesStorage) Update(_ context.Context, title *models.Title, genreIDs []int64) (*models.Title, error) {
	for i, t := range s.titles {
		if t.ID != title.ID {
			continue
		}
		stored := *title
		s.titles[i] = &stored
		if genreIDs != nil {
			s.titleGenres[title.ID] = genreIDs
		}
		res := stored
		return &res, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeTitlesStorage) Delete(_ context.Context, id int64) error {
	for i, t := range s.titles {
		if t.ID == id {
			s.titles = append(s.titles[:i], s.titles[i+1:]...)
			delete(s.titleGenres, id)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *fakeTitlesStorage) GenresForTitle(_ context.Context, titleID int64) ([]models.Genre, error) {
	var genres []models.Genre
	for _, genreID := range s.titleGenres[titleID] {
		if g, ok := s.genres.byID(genreID); ok {
			genres = append(genres, g)
		}
	}
	return genres, nil
}

func (s *fakeTitlesStorage) GenresForTitles(ctx context.Context, titleIDs []int64) (map[int64][]models.Genre, error) {
	res := make(map[int64][]models.Genre)
	for _, id := range titleIDs {
		genres, _ := s.GenresForTitle(ctx, id)
		if len(genres) > 0 {
			res[id] = genres
		}
	}
	return res, nil
}

func (s *fakeTitlesStorage) CategoriesByID(_ context.Context, ids []int64) (map[int64]models.Category, error) {
	res := make(map[int64]models.Category)
	for _, id := range ids {
		for _, c := range s.categories.categories {
			if c.ID == id {
				res[id] = c
			}
		}
	}
	return res, nil
}

type fakeReviewsStorage struct {
	nextID  int64
	reviews []*models.Review
	users   *fakeUsersStorage
}

func (s *fakeReviewsStorage) username(userID int64) string {
	user, err := s.users.GetByID(context.Background(), userID)
	if err != nil {
		return ""
	}
	return user.Username
}

func (s *fakeReviewsStorage) Insert(_ context.Context, review *models.Review) (*models.Review, error) {
	for _, r := range s.reviews {
		if r.TitleID == review.TitleID && r.UserID == review.UserID {
			return nil, storage.ErrConflict
		}
	}
	s.nextID++
	stored := *review
	stored.ID = s.nextID
	stored.CreatedAt = time.Now()
	stored.Author = s.username(stored.UserID)
	s.reviews = append(s.reviews, &stored)
	res := stored
	return &res, nil
}

func (s *fakeReviewsStorage) Get(_ context.Context, titleID, reviewID int64) (*models.Review, error) {
	for _, r := range s.reviews {
		if r.ID == reviewID && r.TitleID == titleID {
			res := *r
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeReviewsStorage) ListForTitle(_ context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error) {
	var matched []models.Review
	for _, r := range s.reviews {
		if r.TitleID == titleID {
			matched = append(matched, *r)
		}
	}
	page, total := paginate(matched, f)
	return page, total, nil
}

func (s *fakeReviewsStorage) ExistsForAuthor(_ context.Context, titleID, userID int64) (bool, error) {
	for _, r := range s.reviews {
		if r.TitleID == titleID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeReviewsStorage) Update(_ context.Context, review *models.Review) (*models.Review, error) {
	for i, r := range s.reviews {
		if r.ID == review.ID {
			stored := *review
			stored.Author = s.username(stored.UserID)
			s.reviews[i] = &stored
			res := stored
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeReviewsStorage) Delete(_ context.Context, id int64) error {
	for i, r := range s.reviews {
		if r.ID == id {
			s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *fakeReviewsStorage) AverageScore(_ context.Context, titleID int64) (*float64, error) {
	var sum, count float64
	for _, r := range s.reviews {
		if r.TitleID == titleID {
			sum += float64(r.Score)
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	avg := sum / count
	return &avg, nil
}

func (s *fakeReviewsStorage) AverageScores(ctx context.Context, titleIDs []int64) (map[int64]float64, error) {
	res := make(map[int64]float64)
	for _, id := range titleIDs {
		if avg, _ := s.AverageScore(ctx, id); avg != nil {
			res[id] = *avg
		}
	}
	return res, nil
}

type fakeCommentsStorage struct {
	nextID   int64
	comments []*models.Comment
	users    *fakeUsersStorage
}

func (s *fakeCommentsStorage) Insert(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	s.nextID++
	stored := *comment
	stored.ID = s.nextID
	stored.CreatedAt = time.Now()
	if user, err := s.users.GetByID(context.Background(), stored.UserID); err == nil {
		stored.Author = user.Username
	}
	s.comments = append(s.comments, &stored)
	res := stored
	return &res, nil
}

func (s *fakeCommentsStorage) Get(_ context.Context, reviewID, commentID int64) (*models.Comment, error) {
	for _, c := range s.comments {
		if c.ID == commentID && c.ReviewID == reviewID {
			res := *c
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeCommentsStorage) ListForReview(_ context.Context, reviewID int64, f filters.Filters) ([]models.Comment, int, error) {
	var matched []models.Comment
	for _, c := range s.comments {
		if c.ReviewID == reviewID {
			matched = append(matched, *c)
		}
	}
	page, total := paginate(matched, f)
	return page, total, nil
}

func (s *fakeCommentsStorage) Update(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	for i, c := range s.comments {
		if c.ID == comment.ID {
			stored := *comment
			s.comments[i] = &stored
			res := stored
			return &res, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeCommentsStorage) Delete(_ context.Context, id int64) error {
	for i, c := range s.comments {
		if c.ID == id {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// testStore bundles the in-memory storages behind the services so tests
// can seed state and inspect side effects directly.
type testStore struct {
	users      *fakeUsersStorage
	categories *fakeCategoriesStorage
	genres     *fakeGenresStorage
	titles     *fakeTitlesStorage
	reviews    *fakeReviewsStorage
	comments   *fakeCommentsStorage
	mailer     *fakeMailer
	tokens     *auth.JWTTokens
}

func (s *testStore) addUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user, err := s.users.Insert(context.Background(), &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
	})
	require.NoError(t, err)
	return user
}

func (s *testStore) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := s.tokens.NewAccessToken(user)
	require.NoError(t, err)
	return token
}

func (s *testStore) addCategory(t *testing.T, name, slug string) *models.Category {
	t.Helper()
	category, err := s.categories.Insert(context.Background(), name, slug)
	require.NoError(t, err)
	return category
}

func (s *testStore) addGenre(t *testing.T, name, slug string) *models.Genre {
	t.Helper()
	genre, err := s.genres.Insert(context.Background(), name, slug)
	require.NoError(t, err)
	return genre
}

func (s *testStore) addTitle(t *testing.T, name string, year int32) *models.Title {
	t.Helper()
	title, err := s.titles.Insert(context.Background(), &models.Title{Name: name, Year: year}, nil)
	require.NoError(t, err)
	return title
}

func (s *testStore) addReview(t *testing.T, title *models.Title, author *models.User, score int) *models.Review {
	t.Helper()
	review, err := s.reviews.Insert(context.Background(), &models.Review{
		TitleID: title.ID,
		UserID:  author.ID,
		Text:    "seed review",
		Score:   score,
	})
	require.NoError(t, err)
	return review
}

func (s *testStore) addComment(t *testing.T, review *models.Review, author *models.User) *models.Comment {
	t.Helper()
	comment, err := s.comments.Insert(context.Background(), &models.Comment{
		ReviewID: review.ID,
		UserID:   author.ID,
		Text:     "seed comment",
	})
	require.NoError(t, err)
	return comment
}

func NewTestApplication(t *testing.T) (*Application, *testStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AppSecret: "test-secret",
		Auth:      config.Auth{TokenTTL: time.Hour},
	}
	store := &testStore{
		users:      &fakeUsersStorage{},
		categories: &fakeCategoriesStorage{},
		genres:     &fakeGenresStorage{},
		mailer:     &fakeMailer{},
		tokens:     auth.NewJWTTokens(cfg.AppSecret, cfg.Auth.TokenTTL),
	}
	store.titles = &fakeTitlesStorage{
		titleGenres: make(map[int64][]int64),
		genres:      store.genres,
		categories:  store.categories,
	}
	store.reviews = &fakeReviewsStorage{users: store.users}
	store.comments = &fakeCommentsStorage{users: store.users}
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	validator.Register(v)
	app := &Application{
		cfg:       cfg,
		log:       log,
		validator: v,
		Services: &services.Services{
			Auth:    auth.New(log, store.users, store.tokens, store.mailer, syncTasks{}),
			Catalog: catalog.New(log, store.categories, store.genres, store.titles, store.reviews),
			Reviews: reviews.New(log, store.titles, store.reviews, store.comments),
			Users:   users.New(log, store.users),
		},
		Http: &Http{log: log, cfg: cfg},
	}
	return app, store
}

func (app *Application) testRequest(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	request.RemoteAddr = "127.0.0.1:54321"
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	app.routes().ServeHTTP(recorder, request)
	return recorder
}

func parseResponse(t *testing.T, recorder *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp
}

func dataObject(t *testing.T, resp Response, key string) map[string]any {
	t.Helper()
	obj, ok := resp.Data[key].(map[string]any)
	require.True(t, ok, "expected object under data.%s", key)
	return obj
}

func dataList(t *testing.T, resp Response, key string) []any {
	t.Helper()
	list, ok := resp.Data[key].([]any)
	require.True(t, ok, "expected list under data.%s", key)
	return list
}
