package history

const insertHotelSQL = `
INSERT INTO hotels (hotel_id, name, address, price, rating, distance)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (hotel_id) DO NOTHING
`

const insertRequestSQL = `
INSERT INTO requests (user_id, command, city, hotels)
VALUES ($1, $2, $3, $4)
RETURNING request_id
`

const listRequestsSQL = `
SELECT request_id, user_id, command, city, created_at, hotels
FROM requests
WHERE user_id = $1
ORDER BY request_id DESC
`

const hotelsByIDSQL = `
SELECT hotel_id, name, address, price, rating, distance
FROM hotels
WHERE hotel_id = ANY($1)
`
