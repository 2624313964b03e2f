// Package sqlite предоставляет платформенный слой для работы с SQLite:
// создание подключений с настроенными PRAGMA, выполнение транзакций
// с ретраями при SQLITE_BUSY и применение миграций через golang-migrate.
//
// Основные компоненты:
//   - NewDB / NewDBWithOptions — подключение с WAL, foreign keys и busy timeout
//   - TxRunner.WithinTx — транзакции с экспоненциальным backoff при блокировках
//   - ApplyMigrations — применение SQL миграций из каталога
//
// Для тестов доступны NewTestDBInMemory и NewTestDBFile с автоматической
// очисткой через t.Cleanup.
package sqlite
