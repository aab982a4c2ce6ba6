package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// BytesScalar is the length of a canonically encoded secp256k1 scalar.
	BytesScalar = 32
	// BytesPoint is the length of a compressed secp256k1 point.
	BytesPoint = 33

	// BitsBlumPrime is the size of the safe primes generated for the
	// homomorphic encryption keys; the resulting modulus is twice as large.
	BitsBlumPrime = 1024
	BitsPaillier  = 2 * BitsBlumPrime

	BytesPaillier   = BitsPaillier / 8
	BytesCiphertext = 2 * BytesPaillier
)
