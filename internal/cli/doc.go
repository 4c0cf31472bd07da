// Package cli — команды tikitoki-cli.
//
// CLI публикует задачи в очереди воркера и смотрит очереди статусов —
// замена бота для локальной отладки:
//
//	tikitoki task login --account acc --username u --password p
//	tikitoki task cookies --account acc --file export.json
//	tikitoki task upload --account acc --key videos/cat.mp4 --description "..."
//	tikitoki status watch login_status
package cli
