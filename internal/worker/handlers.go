package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Leo0rg/tikitoki/internal/automation"
	"github.com/Leo0rg/tikitoki/internal/domain"
	"github.com/Leo0rg/tikitoki/internal/mq"
	"github.com/Leo0rg/tikitoki/internal/telemetry"
)

// handleLogin обрабатывает задачу входа из login_tasks.
//
// Путь выбирается по наличию учётных данных: явная пара — прямой вход,
// иначе вход по QR-коду с пересылкой промежуточных кодов в qr_codes.
// На любой исход публикуется ровно один LoginStatus.
func (w *Worker) handleLogin(ctx context.Context, body []byte) mq.Decision {
	defer w.observe(mq.QueueLoginTasks, time.Now())

	task, err := domain.Decode[domain.LoginTask](body)
	if err != nil {
		return w.reject(mq.QueueLoginTasks, err)
	}

	log := telemetry.WithAccount(w.logger, task.AccountName)
	log.Info("received login task", "has_credentials", task.HasCredentials())

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	proxy := domain.FormatProxy(task.Proxy)
	cookieFile := w.cookies.Path(task.AccountName)

	var result automation.Result
	var delegErr error

	if task.HasCredentials() {
		result, delegErr = w.auto.Login(ctx, automation.LoginParams{
			AccountName: task.AccountName,
			Username:    task.Username,
			Password:    task.Password,
			Proxy:       proxy,
			CookieFile:  cookieFile,
		})
	} else {
		log.Info("no credentials, falling back to QR login")
		result, delegErr = w.auto.LoginWithQR(ctx, automation.QRLoginParams{
			AccountName: task.AccountName,
			Proxy:       proxy,
			CookieFile:  cookieFile,
			OnCode: func(imageBase64 string) {
				code := domain.QRCode{
					TgUserID:    task.TgUserID,
					AccountName: task.AccountName,
					ImageBase64: imageBase64,
				}
				if err := w.publisher.PublishQRCode(ctx, code); err != nil {
					log.Error("failed to forward QR code", "error", err)
				}
			},
		})
	}

	status := domain.LoginStatus{
		TgUserID:    task.TgUserID,
		AccountName: task.AccountName,
	}

	if delegErr != nil {
		delegErr = fmt.Errorf("%w: %v", ErrDelegation, delegErr)
		log.Error("login failed", "error", delegErr)
		status.Message = fmt.Sprintf("Внутренняя ошибка воркера: %v", delegErr)
	} else {
		status.Success = result.Success
		status.Message = result.Message
		log.Info("login finished", "success", result.Success)
	}

	w.replyLogin(ctx, log, status)
	return mq.Ack
}

// handleCookies обрабатывает импорт куков из cookies_tasks.
//
// Тексты ответов различают битый JSON, пустой результат нормализации
// и внутреннюю ошибку — боту важно показать пользователю, что именно
// не так с его экспортом.
func (w *Worker) handleCookies(ctx context.Context, body []byte) mq.Decision {
	defer w.observe(mq.QueueCookieTasks, time.Now())

	task, err := domain.Decode[domain.CookieTask](body)
	if err != nil {
		return w.reject(mq.QueueCookieTasks, err)
	}

	log := telemetry.WithAccount(w.logger, task.AccountName)
	log.Info("received cookie import task")

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	status := domain.CookieStatus{
		TgUserID:    task.TgUserID,
		AccountName: task.AccountName,
	}

	records, rejected, err := domain.NormalizeCookies(task.CookiesJSON)
	switch {
	case errors.Is(err, domain.ErrMalformedExport):
		log.Error("cookie export is not valid JSON")
		status.Message = "Ошибка: не удалось обработать данные куков. Убедитесь, что они в формате JSON."

	case errors.Is(err, domain.ErrNoValidCookies):
		log.Error("no valid cookies after normalization", "rejected", rejected)
		status.Message = "Ошибка: после обработки не осталось ни одной корректной куки."

	case err != nil:
		log.Error("cookie normalization failed", "error", err)
		status.Message = fmt.Sprintf("Произошла внутренняя ошибка при обработке куков для аккаунта '%s'.", task.AccountName)

	default:
		if saveErr := w.cookies.Save(task.AccountName, records); saveErr != nil {
			log.Error("failed to save cookies", "error", saveErr)
			status.Message = fmt.Sprintf("Произошла внутренняя ошибка при обработке куков для аккаунта '%s'.", task.AccountName)
		} else {
			log.Info("cookies saved", "count", len(records), "rejected", rejected)
			status.Success = true
			status.Message = fmt.Sprintf("Куки для аккаунта '%s' успешно обновлены.", task.AccountName)
		}
	}

	w.replyCookie(ctx, log, status)
	return mq.Ack
}

// handleUpload обрабатывает публикацию видео из video_tasks.
//
// Видео скачивается из хранилища во временный файл; файл удаляется
// на любом пути выхода, независимо от исхода публикации.
func (w *Worker) handleUpload(ctx context.Context, body []byte) mq.Decision {
	defer w.observe(mq.QueueVideoTasks, time.Now())

	task, err := domain.Decode[domain.UploadTask](body)
	if err != nil {
		return w.reject(mq.QueueVideoTasks, err)
	}

	log := telemetry.WithAccount(w.logger, task.AccountName)
	log.Info("received upload task", "s3_key", task.S3VideoKey)

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	status := domain.UploadStatus{
		AccountName: task.AccountName,
		S3VideoKey:  task.S3VideoKey,
	}

	videoPath, release, err := ScopedTempFile(".mp4")
	if err != nil {
		log.Error("failed to create temp file", "error", err)
		status.Message = "Внутренняя ошибка воркера: не удалось подготовить временный файл."
		w.replyUpload(ctx, log, status)
		return mq.Ack
	}
	defer release()

	log.Debug("created temp file for video", "path", videoPath)

	if err := w.blobs.Download(ctx, task.S3VideoKey, videoPath); err != nil {
		err = fmt.Errorf("%w: %v", ErrResource, err)
		log.Error("failed to download video", "s3_key", task.S3VideoKey, "error", err)
		status.Message = "Внутренняя ошибка воркера: не удалось получить видео из хранилища."
		w.replyUpload(ctx, log, status)
		return mq.Ack
	}

	log.Info("video downloaded, starting upload", "path", videoPath)

	uploadErr := w.auto.Upload(ctx, automation.UploadParams{
		VideoPath:         videoPath,
		Description:       task.Description,
		AccountName:       task.AccountName,
		Username:          task.Username,
		Password:          task.Password,
		Hashtags:          task.Hashtags,
		SoundName:         task.SoundName,
		FavoriteSoundName: task.FavoriteSoundName,
		SoundAudVol:       task.SoundAudVol,
		Proxy:             domain.FormatProxy(task.Proxy),
		CookieFile:        w.cookies.Path(task.AccountName),
	})
	if uploadErr != nil {
		uploadErr = fmt.Errorf("%w: %v", ErrDelegation, uploadErr)
		log.Error("upload failed", "error", uploadErr)
		status.Message = fmt.Sprintf("Ошибка публикации видео: %v", uploadErr)
	} else {
		log.Info("video uploaded successfully")
		status.Success = true
		status.Message = fmt.Sprintf("Видео для аккаунта '%s' успешно опубликовано.", task.AccountName)
	}

	w.replyUpload(ctx, log, status)
	return mq.Ack
}

// reject отбрасывает сообщение, не прошедшее валидацию. Ответа нет:
// payload'у нельзя доверять даже ради correlation id.
func (w *Worker) reject(queue mq.Queue, err error) mq.Decision {
	w.logger.Warn("rejecting invalid task", "queue", queue, "error", err)
	telemetry.TasksTotal.WithLabelValues(string(queue), telemetry.OutcomeRejected).Inc()
	return mq.Drop
}

// replyTimeout — отдельный предел на публикацию статус-ответа.
const replyTimeout = 30 * time.Second

// replyContext отвязывает публикацию ответа от дедлайна задачи.
//
// Просроченная или отменённая задача всё равно обязана получить свой
// статус-ответ: именно на этом пути обработчик синтезирует сообщение
// об ошибке, и публиковать его с уже истёкшим контекстом бессмысленно.
func replyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
}

// replyLogin публикует LoginStatus. Ошибка публикации логируется,
// но не приводит к повторной доставке: задача уже выполнена,
// повтор означал бы второй вход.
func (w *Worker) replyLogin(ctx context.Context, log *slog.Logger, status domain.LoginStatus) {
	ctx, cancel := replyContext(ctx)
	defer cancel()

	if err := w.publisher.PublishLoginStatus(ctx, status); err != nil {
		log.Error("failed to publish login status", "error", err)
	}
	w.count(mq.QueueLoginTasks, status.Success)
}

// replyCookie публикует CookieStatus, см. replyLogin.
func (w *Worker) replyCookie(ctx context.Context, log *slog.Logger, status domain.CookieStatus) {
	ctx, cancel := replyContext(ctx)
	defer cancel()

	if err := w.publisher.PublishCookieStatus(ctx, status); err != nil {
		log.Error("failed to publish cookie status", "error", err)
	}
	w.count(mq.QueueCookieTasks, status.Success)
}

// replyUpload публикует UploadStatus, см. replyLogin.
func (w *Worker) replyUpload(ctx context.Context, log *slog.Logger, status domain.UploadStatus) {
	ctx, cancel := replyContext(ctx)
	defer cancel()

	if err := w.publisher.PublishUploadStatus(ctx, status); err != nil {
		log.Error("failed to publish upload status", "error", err)
	}
	w.count(mq.QueueVideoTasks, status.Success)
}

func (w *Worker) observe(queue mq.Queue, start time.Time) {
	telemetry.TaskDuration.WithLabelValues(string(queue)).Observe(time.Since(start).Seconds())
}

func (w *Worker) count(queue mq.Queue, success bool) {
	outcome := telemetry.OutcomeFailure
	if success {
		outcome = telemetry.OutcomeSuccess
	}
	telemetry.TasksTotal.WithLabelValues(string(queue), outcome).Inc()
}
