package mysql

// Schema (migrations/001_apartments.sql):
//
//   CREATE TABLE apartments (
//     id          VARCHAR(64)  PRIMARY KEY,
//     prop_id     BIGINT       NOT NULL,
//     room_id     BIGINT       NOT NULL,
//     name        VARCHAR(255) NOT NULL,
//     currency    CHAR(3)      NOT NULL DEFAULT 'EUR',
//     adult_rate  DECIMAL(8,2) NOT NULL DEFAULT 20.00,
//     child_rate  DECIMAL(8,2) NOT NULL DEFAULT 10.00,
//     min_stay    INT          NOT NULL DEFAULT 1,
//     max_stay    INT          NOT NULL DEFAULT 0,
//     description TEXT         NULL,
//     sleeps      INT          NULL
//   );

const getApartmentSQL = `
SELECT id, prop_id, room_id, name, currency,
       adult_rate, child_rate, min_stay, max_stay,
       description, sleeps
FROM apartments
WHERE id = ?`

const listApartmentsSQL = `
SELECT id, prop_id, room_id, name, currency,
       adult_rate, child_rate, min_stay, max_stay,
       description, sleeps
FROM apartments
ORDER BY id`

const upsertApartmentSQL = `
INSERT INTO apartments
  (id, prop_id, room_id, name, currency, adult_rate, child_rate, min_stay, max_stay, description, sleeps)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  prop_id=VALUES(prop_id), room_id=VALUES(room_id), name=VALUES(name),
  currency=VALUES(currency), adult_rate=VALUES(adult_rate), child_rate=VALUES(child_rate),
  min_stay=VALUES(min_stay), max_stay=VALUES(max_stay),
  description=VALUES(description), sleeps=VALUES(sleeps)`
