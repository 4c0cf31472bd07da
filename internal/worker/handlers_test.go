package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Leo0rg/tikitoki/internal/automation"
	"github.com/Leo0rg/tikitoki/internal/domain"
	"github.com/Leo0rg/tikitoki/internal/mq"
)

// --- Фейки коллабораторов ---

type fakePublisher struct {
	loginStatuses  []domain.LoginStatus
	cookieStatuses []domain.CookieStatus
	uploadStatuses []domain.UploadStatus
	qrCodes        []domain.QRCode

	// respectCtx имитирует amqp PublishWithContext: публикация
	// с истёкшим контекстом не уходит
	respectCtx bool
}

func (p *fakePublisher) PublishLoginStatus(ctx context.Context, s domain.LoginStatus) error {
	if p.respectCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	p.loginStatuses = append(p.loginStatuses, s)
	return nil
}

func (p *fakePublisher) PublishCookieStatus(ctx context.Context, s domain.CookieStatus) error {
	if p.respectCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	p.cookieStatuses = append(p.cookieStatuses, s)
	return nil
}

func (p *fakePublisher) PublishUploadStatus(ctx context.Context, s domain.UploadStatus) error {
	if p.respectCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	p.uploadStatuses = append(p.uploadStatuses, s)
	return nil
}

func (p *fakePublisher) PublishQRCode(ctx context.Context, c domain.QRCode) error {
	if p.respectCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	p.qrCodes = append(p.qrCodes, c)
	return nil
}

type fakeAutomation struct {
	loginCalls  []automation.LoginParams
	qrCalls     []automation.QRLoginParams
	uploadCalls []automation.UploadParams

	result    automation.Result
	loginErr  error
	uploadErr error

	// QR-коды, которые автоматизация "показывает" при входе
	emitCodes []string

	// вызывается при Upload, до возврата uploadErr
	onUpload func(p automation.UploadParams)

	// blockUntilCtx имитирует зависшую автоматизацию:
	// вызов висит до отмены контекста и возвращает ctx.Err()
	blockUntilCtx bool
}

func (a *fakeAutomation) Login(ctx context.Context, p automation.LoginParams) (automation.Result, error) {
	a.loginCalls = append(a.loginCalls, p)
	if a.blockUntilCtx {
		<-ctx.Done()
		return automation.Result{}, ctx.Err()
	}
	return a.result, a.loginErr
}

func (a *fakeAutomation) LoginWithQR(_ context.Context, p automation.QRLoginParams) (automation.Result, error) {
	a.qrCalls = append(a.qrCalls, p)
	for _, code := range a.emitCodes {
		p.OnCode(code)
	}
	return a.result, a.loginErr
}

func (a *fakeAutomation) Upload(ctx context.Context, p automation.UploadParams) error {
	a.uploadCalls = append(a.uploadCalls, p)
	if a.onUpload != nil {
		a.onUpload(p)
	}
	if a.blockUntilCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	return a.uploadErr
}

type fakeBlobs struct {
	err   error
	keys  []string
	paths []string
}

func (b *fakeBlobs) Download(_ context.Context, key, localPath string) error {
	b.keys = append(b.keys, key)
	b.paths = append(b.paths, localPath)
	if b.err != nil {
		return b.err
	}
	return os.WriteFile(localPath, []byte("video-bytes"), 0o600)
}

type fakeCookies struct {
	dir     string
	saveErr error
	saved   map[string][]domain.Cookie
}

func (c *fakeCookies) Save(account string, records []domain.Cookie) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	if c.saved == nil {
		c.saved = make(map[string][]domain.Cookie)
	}
	c.saved[account] = records
	return nil
}

func (c *fakeCookies) Path(account string) string {
	return filepath.Join(c.dir, "TK_cookies_"+account+".json")
}

type testEnv struct {
	worker    *Worker
	publisher *fakePublisher
	auto      *fakeAutomation
	blobs     *fakeBlobs
	cookies   *fakeCookies
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		publisher: &fakePublisher{},
		auto:      &fakeAutomation{result: automation.Result{Success: true, Message: "ok"}},
		blobs:     &fakeBlobs{},
		cookies:   &fakeCookies{dir: t.TempDir()},
	}
	env.worker = New(Config{
		Publisher: env.publisher,
		Blobs:     env.blobs,
		Cookies:   env.cookies,
		Auto:      env.auto,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	return env
}

// --- Login handler ---

const loginTaskWithCreds = `{
	"tg_user_id": 42,
	"account_name": "acc",
	"tiktok_username": "user",
	"tiktok_password": "pass"
}`

func TestHandleLogin_CredentialsUseDirectPath(t *testing.T) {
	env := newTestEnv(t)

	decision := env.worker.handleLogin(context.Background(), []byte(loginTaskWithCreds))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	// с учётными данными — только прямой вход, никогда QR
	if len(env.auto.loginCalls) != 1 {
		t.Fatalf("expected 1 direct login call, got %d", len(env.auto.loginCalls))
	}
	if len(env.auto.qrCalls) != 0 {
		t.Fatalf("QR path must not be used, got %d calls", len(env.auto.qrCalls))
	}

	call := env.auto.loginCalls[0]
	if call.Username != "user" || call.Password != "pass" {
		t.Errorf("credentials not passed through: %+v", call)
	}

	// ровно один статус-ответ
	if len(env.publisher.loginStatuses) != 1 {
		t.Fatalf("expected exactly 1 login status, got %d", len(env.publisher.loginStatuses))
	}
	status := env.publisher.loginStatuses[0]
	if !status.Success || status.Message != "ok" {
		t.Errorf("status must carry the capability result: %+v", status)
	}
	if status.TgUserID != 42 || status.AccountName != "acc" {
		t.Errorf("status must correlate to the task: %+v", status)
	}
}

func TestHandleLogin_NoCredentialsUsesQR(t *testing.T) {
	env := newTestEnv(t)
	env.auto.emitCodes = []string{"png-one", "png-two"}

	decision := env.worker.handleLogin(context.Background(), []byte(`{"tg_user_id":42,"account_name":"acc"}`))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	if len(env.auto.qrCalls) != 1 || len(env.auto.loginCalls) != 0 {
		t.Fatalf("expected QR path only: qr=%d direct=%d", len(env.auto.qrCalls), len(env.auto.loginCalls))
	}

	// промежуточные коды пересланы до финального статуса
	if len(env.publisher.qrCodes) != 2 {
		t.Fatalf("expected 2 forwarded QR codes, got %d", len(env.publisher.qrCodes))
	}
	if env.publisher.qrCodes[0].ImageBase64 != "png-one" {
		t.Errorf("codes must be forwarded in order: %+v", env.publisher.qrCodes)
	}
	if env.publisher.qrCodes[0].TgUserID != 42 {
		t.Errorf("QR code must correlate to the task: %+v", env.publisher.qrCodes[0])
	}

	if len(env.publisher.loginStatuses) != 1 {
		t.Fatalf("expected exactly 1 login status, got %d", len(env.publisher.loginStatuses))
	}
}

func TestHandleLogin_DelegationError(t *testing.T) {
	env := newTestEnv(t)
	env.auto.loginErr = errors.New("browser crashed")

	decision := env.worker.handleLogin(context.Background(), []byte(loginTaskWithCreds))
	if decision != mq.Ack {
		t.Fatalf("delegation error must still be Ack, got %v", decision)
	}

	if len(env.publisher.loginStatuses) != 1 {
		t.Fatalf("expected exactly 1 login status, got %d", len(env.publisher.loginStatuses))
	}
	status := env.publisher.loginStatuses[0]
	if status.Success {
		t.Error("status must be a failure")
	}
	if !strings.Contains(status.Message, "Внутренняя ошибка воркера") {
		t.Errorf("expected synthesized failure message, got %q", status.Message)
	}
}

func TestHandleLogin_ReplyAfterJobTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.respectCtx = true
	env.auto.blockUntilCtx = true
	env.worker.jobTimeout = 20 * time.Millisecond

	decision := env.worker.handleLogin(context.Background(), []byte(loginTaskWithCreds))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	// дедлайн задачи истёк, но ответ всё равно ровно один:
	// публикация не должна зависеть от контекста задачи
	if len(env.publisher.loginStatuses) != 1 {
		t.Fatalf("expected exactly 1 login status after job timeout, got %d", len(env.publisher.loginStatuses))
	}
	status := env.publisher.loginStatuses[0]
	if status.Success {
		t.Error("timed-out login must report failure")
	}
	if !strings.Contains(status.Message, "Внутренняя ошибка воркера") {
		t.Errorf("expected synthesized failure message, got %q", status.Message)
	}
}

func TestHandleLogin_InvalidMessage(t *testing.T) {
	env := newTestEnv(t)

	decision := env.worker.handleLogin(context.Background(), []byte(`{"account_name":""}`))
	if decision != mq.Drop {
		t.Fatalf("invalid message must be dropped, got %v", decision)
	}

	// валидационный отказ — без ответа
	if len(env.publisher.loginStatuses) != 0 {
		t.Errorf("no status must be published for a rejected message")
	}
	if len(env.auto.loginCalls)+len(env.auto.qrCalls) != 0 {
		t.Errorf("automation must not be invoked for a rejected message")
	}
}

// --- Cookie handler ---

func cookieTaskBody(cookiesJSON string) []byte {
	task := fmt.Sprintf(`{"tg_user_id":7,"account_name":"acc","cookies_json":%q}`, cookiesJSON)
	return []byte(task)
}

func TestHandleCookies_Success(t *testing.T) {
	env := newTestEnv(t)

	export := `[{"name":"sid","value":"v","domain":".tiktok.com","path":"/","sameSite":"Strict"}]`
	decision := env.worker.handleCookies(context.Background(), cookieTaskBody(export))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	saved := env.cookies.saved["acc"]
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved cookie, got %d", len(saved))
	}
	if saved[0].SameSite != domain.SameSiteStrict {
		t.Errorf("normalized record must be persisted: %+v", saved[0])
	}

	if len(env.publisher.cookieStatuses) != 1 {
		t.Fatalf("expected exactly 1 cookie status, got %d", len(env.publisher.cookieStatuses))
	}
	status := env.publisher.cookieStatuses[0]
	if !status.Success {
		t.Errorf("expected success, got %+v", status)
	}
	if !strings.Contains(status.Message, "'acc'") {
		t.Errorf("success message must name the account: %q", status.Message)
	}
}

func TestHandleCookies_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	decision := env.worker.handleCookies(context.Background(), cookieTaskBody(`{broken`))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	if len(env.cookies.saved) != 0 {
		t.Error("nothing must be persisted for a malformed export")
	}

	status := env.publisher.cookieStatuses[0]
	if status.Success {
		t.Error("expected failure status")
	}
	if !strings.Contains(status.Message, "JSON") {
		t.Errorf("malformed-export message must mention JSON: %q", status.Message)
	}
}

func TestHandleCookies_NoValidCookies(t *testing.T) {
	env := newTestEnv(t)

	// разбирается, но ни одна запись не проходит фильтр
	decision := env.worker.handleCookies(context.Background(), cookieTaskBody(`[{"name":"only-name"}]`))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	status := env.publisher.cookieStatuses[0]
	if status.Success {
		t.Error("expected failure status")
	}

	// текст должен отличаться от ответа на битый JSON
	env2 := newTestEnv(t)
	env2.worker.handleCookies(context.Background(), cookieTaskBody(`{broken`))
	malformedMsg := env2.publisher.cookieStatuses[0].Message
	if status.Message == malformedMsg {
		t.Errorf("empty-result message must differ from malformed-JSON message: %q", status.Message)
	}
}

func TestHandleCookies_StoreError(t *testing.T) {
	env := newTestEnv(t)
	env.cookies.saveErr = errors.New("disk full")

	export := `[{"name":"sid","value":"v","domain":"d","path":"/"}]`
	env.worker.handleCookies(context.Background(), cookieTaskBody(export))

	status := env.publisher.cookieStatuses[0]
	if status.Success {
		t.Error("expected failure status")
	}
	if !strings.Contains(status.Message, "внутренняя ошибка") {
		t.Errorf("expected generic internal-error message, got %q", status.Message)
	}
}

// --- Upload handler ---

const uploadTask = `{
	"s3_video_key": "videos/cat.mp4",
	"account_name": "acc",
	"description": "my cat",
	"hashtags": ["cats"]
}`

func TestHandleUpload_EndToEnd(t *testing.T) {
	env := newTestEnv(t)

	var uploadedFrom string
	var fileExistedDuringUpload bool
	env.auto.onUpload = func(p automation.UploadParams) {
		uploadedFrom = p.VideoPath
		_, err := os.Stat(p.VideoPath)
		fileExistedDuringUpload = err == nil
	}

	decision := env.worker.handleUpload(context.Background(), []byte(uploadTask))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	// видео скачано во временный файл и передано автоматизации тем же путём
	if len(env.blobs.keys) != 1 || env.blobs.keys[0] != "videos/cat.mp4" {
		t.Fatalf("unexpected blob fetches: %v", env.blobs.keys)
	}
	if uploadedFrom != env.blobs.paths[0] {
		t.Errorf("upload must use the fetched path: %q != %q", uploadedFrom, env.blobs.paths[0])
	}
	if !fileExistedDuringUpload {
		t.Error("video file must exist while the capability runs")
	}

	call := env.auto.uploadCalls[0]
	if call.Description != "my cat" || len(call.Hashtags) != 1 {
		t.Errorf("task fields not passed through: %+v", call)
	}
	if call.CookieFile != env.cookies.Path("acc") {
		t.Errorf("upload must point at the account cookie file: %q", call.CookieFile)
	}
	if call.Proxy != nil {
		t.Errorf("no proxy in the task means no proxy in the call: %+v", call.Proxy)
	}

	// временный файл удалён после обработки
	if _, err := os.Stat(env.blobs.paths[0]); !os.IsNotExist(err) {
		t.Errorf("temp file must be removed after handling: %v", err)
	}

	if len(env.publisher.uploadStatuses) != 1 {
		t.Fatalf("expected exactly 1 upload status, got %d", len(env.publisher.uploadStatuses))
	}
	if !env.publisher.uploadStatuses[0].Success {
		t.Errorf("expected success status: %+v", env.publisher.uploadStatuses[0])
	}
}

func TestHandleUpload_FetchFails(t *testing.T) {
	env := newTestEnv(t)
	env.blobs.err = errors.New("object not found")

	decision := env.worker.handleUpload(context.Background(), []byte(uploadTask))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	if len(env.auto.uploadCalls) != 0 {
		t.Error("capability must not run when the blob fetch failed")
	}

	status := env.publisher.uploadStatuses[0]
	if status.Success {
		t.Error("expected failure status")
	}
	if !strings.Contains(status.Message, "хранилища") {
		t.Errorf("expected storage failure message, got %q", status.Message)
	}

	// файл удалён несмотря на провал
	if _, err := os.Stat(env.blobs.paths[0]); !os.IsNotExist(err) {
		t.Errorf("temp file must be removed after a failed fetch: %v", err)
	}
}

func TestHandleUpload_UploadFails(t *testing.T) {
	env := newTestEnv(t)
	env.auto.uploadErr = errors.New("captcha wall")

	decision := env.worker.handleUpload(context.Background(), []byte(uploadTask))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	status := env.publisher.uploadStatuses[0]
	if status.Success {
		t.Error("expected failure status")
	}

	// файл удалён независимо от исхода публикации
	if _, err := os.Stat(env.blobs.paths[0]); !os.IsNotExist(err) {
		t.Errorf("temp file must be removed after a failed upload: %v", err)
	}
}

func TestHandleUpload_ReplyAfterJobTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.respectCtx = true
	env.auto.blockUntilCtx = true
	env.worker.jobTimeout = 20 * time.Millisecond

	decision := env.worker.handleUpload(context.Background(), []byte(uploadTask))
	if decision != mq.Ack {
		t.Fatalf("expected Ack, got %v", decision)
	}

	if len(env.publisher.uploadStatuses) != 1 {
		t.Fatalf("expected exactly 1 upload status after job timeout, got %d", len(env.publisher.uploadStatuses))
	}
	status := env.publisher.uploadStatuses[0]
	if status.Success {
		t.Error("timed-out upload must report failure")
	}
	if !strings.Contains(status.Message, "Ошибка публикации видео") {
		t.Errorf("expected synthesized failure message, got %q", status.Message)
	}
}

func TestHandleUpload_InvalidMessage(t *testing.T) {
	env := newTestEnv(t)

	decision := env.worker.handleUpload(context.Background(), []byte(`{"s3_video_key":""}`))
	if decision != mq.Drop {
		t.Fatalf("invalid message must be dropped, got %v", decision)
	}
	if len(env.publisher.uploadStatuses) != 0 {
		t.Error("no status must be published for a rejected message")
	}
	if len(env.blobs.keys) != 0 {
		t.Error("no blob fetch for a rejected message")
	}
}

func TestHandleUpload_WithProxy(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{
		"s3_video_key": "videos/cat.mp4",
		"account_name": "acc",
		"description": "d",
		"proxy": {"host": "1.2.3.4", "port": 8080}
	}`)

	env.worker.handleUpload(context.Background(), body)

	call := env.auto.uploadCalls[0]
	if call.Proxy == nil || call.Proxy.Server != "http://1.2.3.4:8080" {
		t.Errorf("proxy must be translated to canonical form: %+v", call.Proxy)
	}
}
