package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	"github.com/vladislavdragonenkov/prodhub/internal/service/auth"
	"github.com/vladislavdragonenkov/prodhub/internal/service/ledger"
	"github.com/vladislavdragonenkov/prodhub/internal/storage/memory"
)

const testAdminKey = "admin-secret"

type testEnv struct {
	router *gin.Engine
	store  *memory.Store

	user    domain.User
	cola    domain.Product
	pretzel domain.Product
	fair    domain.Event
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	ctx := context.Background()

	creds, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	user, err := store.Users().Create(ctx, "cashier", creds)
	require.NoError(t, err)

	snacks, err := store.Categories().Create(ctx, "snacks")
	require.NoError(t, err)

	cola, err := store.Products().Create(ctx, domain.CreateProduct{Name: "Cola", Stock: 10, Price: 2.5})
	require.NoError(t, err)
	pretzel, err := store.Products().Create(ctx, domain.CreateProduct{
		Name: "Pretzel", Stock: 3, Price: 4, Categories: []string{snacks.ID},
	})
	require.NoError(t, err)

	start := time.Now().UTC().Add(-time.Hour)
	fair, err := store.Events().Create(ctx, domain.CreateEvent{Name: "Spring Fair", Start: &start})
	require.NoError(t, err)

	authSvc := auth.NewService(store.Users(), store.Sessions(), nil)
	ledgerSvc := ledger.NewService(store.Ledger(), nil)

	server := NewServer(Config{
		Auth:       authSvc,
		Ledger:     ledgerSvc,
		Users:      store.Users(),
		Products:   store.Products(),
		Categories: store.Categories(),
		Events:     store.Events(),
		AdminKey:   testAdminKey,
		StaticDir:  t.TempDir(),
	})

	return &testEnv{
		router:  server.Router(),
		store:   store,
		user:    user,
		cola:    cola,
		pretzel: pretzel,
		fair:    fair,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
	req.SetBasicAuth("cashier", "correct horse")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Value
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func assertDetail(t *testing.T, rec *httptest.ResponseRecorder, status int, detail string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, detail, body["detail"])
}

func TestLogin_IssuesToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
	req.SetBasicAuth("cashier", "correct horse")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody[sessionResponse](t, rec)
	assert.Len(t, resp.Value, 64)
	assert.WithinDuration(t, time.Now().Add(10*time.Hour), resp.Expires, time.Minute)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
	req.SetBasicAuth("cashier", "wrong")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assertDetail(t, rec, http.StatusUnauthorized, "Invalid Username or Password")

	// Без заголовка Authorization ответ тот же.
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/user/login", nil))
	assertDetail(t, rec, http.StatusUnauthorized, "Invalid Username or Password")
}

func TestLogin_TokenLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := env.store.Sessions().Insert(ctx, domain.Session{
			Value:   fmt.Sprintf("token-%d", i),
			UserID:  env.user.ID,
			Expires: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
	req.SetBasicAuth("cashier", "correct horse")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assertDetail(t, rec, http.StatusForbidden, "Token Limit Exceeded")
}

func TestRequireToken_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/transactions", "", nil)
	assertDetail(t, rec, http.StatusForbidden, "Invalid Token")

	rec = env.do(t, http.MethodGet, "/transactions", "deadbeef", nil)
	assertDetail(t, rec, http.StatusForbidden, "Invalid Token")

	// Истёкший токен неотличим от неизвестного.
	err := env.store.Sessions().Insert(context.Background(), domain.Session{
		Value:   "stale-token",
		UserID:  env.user.ID,
		Expires: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/transactions", "stale-token", nil)
	assertDetail(t, rec, http.StatusForbidden, "Invalid Token")
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/user/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/transactions", token, nil)
	assertDetail(t, rec, http.StatusForbidden, "Invalid Token")
}

func TestLogoutAll_RevokesEveryToken(t *testing.T) {
	env := newTestEnv(t)
	first := env.login(t)
	second := env.login(t)

	rec := env.do(t, http.MethodPost, "/user/logout-all", first, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	for _, token := range []string{first, second} {
		rec = env.do(t, http.MethodGet, "/transactions", token, nil)
		assertDetail(t, rec, http.StatusForbidden, "Invalid Token")
	}
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodGet, "/user/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]json.RawMessage](t, rec)
	var user userResponse
	require.NoError(t, json.Unmarshal(body["user"], &user))
	assert.Equal(t, "cashier", user.Username)
}

func TestTransactions_CreateDecrementsStock(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"event_id":       env.fair.ID,
		"payment_method": "Card",
		"sales": []gin.H{
			{"product_id": env.cola.ID, "amount": 4},
			{"product_id": env.pretzel.ID, "amount": 1, "price": 3.0},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[transactionResponse](t, rec)
	assert.Equal(t, "cashier", resp.Username)
	require.NotNil(t, resp.EventID)
	assert.Equal(t, env.fair.ID, *resp.EventID)
	assert.InDelta(t, 4*2.5+1*3.0, resp.Sum, 1e-9)
	require.Len(t, resp.Sales, 2)
	assert.Equal(t, 2.5, resp.Sales[0].Price)

	cola, err := env.store.Products().Get(context.Background(), env.cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, cola.Stock)
}

func TestTransactions_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"payment_method": "Cash",
		"sales": []gin.H{
			{"product_id": env.cola.ID, "amount": 2},
			{"product_id": env.pretzel.ID, "amount": 5},
		},
	})
	assertDetail(t, rec, http.StatusConflict, "Not enough product "+env.pretzel.ID)

	// Частичных списаний не остаётся.
	cola, err := env.store.Products().Get(context.Background(), env.cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, cola.Stock)
}

func TestTransactions_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"payment_method": "Cash",
		"sales":          []gin.H{{"product_id": "missing", "amount": 1}},
	})
	assertDetail(t, rec, http.StatusNotFound, "Such Product Does not Exist")
}

func TestTransactions_UnknownEvent(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"event_id":       "missing",
		"payment_method": "Cash",
	})
	assertDetail(t, rec, http.StatusNotFound, "Event not found")
}

func TestTransactions_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"payment_method": "Barter",
		"sales":          []gin.H{{"product_id": env.cola.ID, "amount": 0}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Contains(t, body["detail"], "payment method")
	assert.Contains(t, body["detail"], "amount")
}

func TestTransactions_ListFilterAndOrder(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	create := func(method string, amount int) string {
		rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
			"payment_method": method,
			"sales":          []gin.H{{"product_id": env.cola.ID, "amount": amount}},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decodeBody[transactionResponse](t, rec).TransactionID
	}
	cardBig := create("Card", 3)
	cardSmall := create("Card", 1)
	create("Cash", 2)

	rec := env.do(t, http.MethodGet, "/transactions?payment_method=Card&order_by=sum", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]transactionResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, cardSmall, list[0].TransactionID)
	assert.Equal(t, cardBig, list[1].TransactionID)

	rec = env.do(t, http.MethodGet, "/transactions?payment_method=Voucher", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/transactions?start=not-a-time", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactions_UpdateReplacesSales(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"payment_method": "Cash",
		"sales":          []gin.H{{"product_id": env.cola.ID, "amount": 4}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[transactionResponse](t, rec).TransactionID

	rec = env.do(t, http.MethodPatch, "/transactions/"+id, token, gin.H{
		"sales": []gin.H{{"product_id": env.cola.ID, "amount": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 10 - 4, вернули 4, списали 1.
	cola, err := env.store.Products().Get(context.Background(), env.cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, cola.Stock)
}

func TestTransactions_UpdateForceSkipsReturn(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"payment_method": "Cash",
		"sales":          []gin.H{{"product_id": env.cola.ID, "amount": 4}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[transactionResponse](t, rec).TransactionID

	rec = env.do(t, http.MethodPatch, "/transactions/"+id+"?force=true", token, gin.H{
		"sales": []gin.H{{"product_id": env.cola.ID, "amount": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	cola, err := env.store.Products().Get(context.Background(), env.cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, cola.Stock)
}

func TestTransactions_UpdateNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPatch, "/transactions/missing", token, gin.H{})
	assertDetail(t, rec, http.StatusNotFound, "Such transaction does not exist")
}

func TestTransactions_DeleteReturnsStockByDefault(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"payment_method": "Cash",
		"sales":          []gin.H{{"product_id": env.cola.ID, "amount": 4}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[transactionResponse](t, rec).TransactionID

	rec = env.do(t, http.MethodDelete, "/transactions/"+id, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	cola, err := env.store.Products().Get(context.Background(), env.cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, cola.Stock)

	rec = env.do(t, http.MethodGet, "/transactions/"+id, token, nil)
	assertDetail(t, rec, http.StatusNotFound, "Such transaction does not exist")
}

func TestTransactions_DeleteWithoutReturn(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/transactions", token, gin.H{
		"payment_method": "Cash",
		"sales":          []gin.H{{"product_id": env.cola.ID, "amount": 4}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[transactionResponse](t, rec).TransactionID

	rec = env.do(t, http.MethodDelete, "/transactions/"+id+"?return_products=false", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	cola, err := env.store.Products().Get(context.Background(), env.cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, cola.Stock)
}

func TestCategories_CRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/categories", token, gin.H{"name": "drinks"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[categoryResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/categories", token, gin.H{"name": "drinks"})
	assertDetail(t, rec, http.StatusConflict, "Such category already exists")

	rec = env.do(t, http.MethodPatch, "/categories/"+created.CategoryID, token, gin.H{"name": "beverages"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "beverages", decodeBody[categoryResponse](t, rec).Name)

	rec = env.do(t, http.MethodDelete, "/categories/"+created.CategoryID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/categories/"+created.CategoryID, token, nil)
	assertDetail(t, rec, http.StatusNotFound, "Such category does not exist")
}

func TestEvents_RangeValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	start := time.Now().UTC()
	finish := start.Add(-time.Hour)
	rec := env.do(t, http.MethodPost, "/events", token, gin.H{
		"name":   "Backwards",
		"start":  start,
		"finish": finish,
	})
	assertDetail(t, rec, http.StatusBadRequest, "Finish time cannot be before start time")
}

func TestEvents_DuplicateName(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/events", token, gin.H{"name": "Spring Fair"})
	assertDetail(t, rec, http.StatusConflict, "Event with such name already exists")
}

func TestProducts_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/products", token, gin.H{
		"name":       "Juice",
		"stock":      5,
		"price":      1.5,
		"categories": []string{"missing"},
	})
	assertDetail(t, rec, http.StatusNotFound, "Such Category Does not Exist")
}

func TestProducts_DuplicateName(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/products", token, gin.H{"name": "Cola", "stock": 1, "price": 1})
	assertDetail(t, rec, http.StatusConflict, "Such Product Already Exists")
}

func TestProducts_Image(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	req := httptest.NewRequest(http.MethodPut, "/products/"+env.cola.ID+"/image", bytes.NewReader(png))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "/static/"+env.cola.ID+".png", body["image"])

	cola, err := env.store.Products().Get(context.Background(), env.cola.ID)
	require.NoError(t, err)
	require.NotNil(t, cola.Image)

	rec = env.do(t, http.MethodDelete, "/products/"+env.cola.ID+"/image", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/products/"+env.cola.ID+"/image", token, nil)
	assertDetail(t, rec, http.StatusNotFound, "Such Image Does not Exist")
}

func TestProducts_ImageUnsupportedType(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	req := httptest.NewRequest(http.MethodPut, "/products/"+env.cola.ID+"/image", bytes.NewReader([]byte("plain text, not an image")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assertDetail(t, rec, http.StatusUnsupportedMediaType, "Unable to determine file type")
}

func TestAdmin_RequiresKey(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/users", "", gin.H{"username": "x", "password": "y"})
	assertDetail(t, rec, http.StatusForbidden, "Admin Status Required")
}

func TestAdmin_UserLifecycle(t *testing.T) {
	env := newTestEnv(t)

	doAdmin := func(method, path string, body any) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		} else {
			reader = bytes.NewReader(nil)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set(adminKeyHeader, testAdminKey)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	rec := doAdmin(http.MethodPost, "/admin/users", gin.H{"username": "manager", "password": "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[userResponse](t, rec)
	assert.Equal(t, "manager", created.Username)

	rec = doAdmin(http.MethodPost, "/admin/users", gin.H{"username": "manager", "password": "other"})
	assertDetail(t, rec, http.StatusConflict, "Such User Already Exists")

	rec = doAdmin(http.MethodPatch, "/admin/users/"+created.UserID, gin.H{"username": "cashier"})
	assertDetail(t, rec, http.StatusConflict, "User with Such Username Already Exists")

	rec = doAdmin(http.MethodPatch, "/admin/users/"+created.UserID, gin.H{"password": "rotated"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doAdmin(http.MethodDelete, "/admin/users/"+created.UserID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doAdmin(http.MethodDelete, "/admin/users/"+created.UserID, nil)
	assertDetail(t, rec, http.StatusNotFound, "Such User Does not Exist")
}

func TestStaticFilesServed(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	req := httptest.NewRequest(http.MethodPut, "/products/"+env.cola.ID+"/image", bytes.NewReader(png))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/static/"+env.cola.ID+".png", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())
}
