package protocol

// TypeCode identifies the kind of a frame on the wire. Request and response
// codes occupy separate spaces, the direction of the frame disambiguates.
type TypeCode uint8

// Request type codes (client to server)
const (
	ReqQuery  TypeCode = 0
	ReqInsert TypeCode = 1
	ReqAuth   TypeCode = 2
	ReqPing   TypeCode = 3
)

// Response type codes (server to client)
const (
	// Success responses

	ResQuery       TypeCode = 0 // query result payload
	ResInsert      TypeCode = 1 // insert acknowledgement payload
	ResAck         TypeCode = 2 // bare acknowledgement, no payload
	ResAuthSuccess TypeCode = 3 // authentication accepted
	ResInfo        TypeCode = 4 // info payload
	ResFile        TypeCode = 5 // file payload

	// Error responses

	ErrMsg              TypeCode = 64 // generic error with message payload
	ErrQuery            TypeCode = 65 // query rejected
	ErrInsert           TypeCode = 66 // insert rejected
	ErrServer           TypeCode = 67 // transient server fault
	ErrPool             TypeCode = 68 // pool fault reported by the server
	ErrUserAccess       TypeCode = 69 // insufficient user privileges
	ErrGeneric          TypeCode = 70 // unexpected server fault, no message
	ErrNotAuthenticated TypeCode = 71 // connection not authenticated
	ErrAuthCredentials  TypeCode = 72 // invalid credentials
	ErrAuthUnknownDB    TypeCode = 73 // unknown database
	ErrLoadingDB        TypeCode = 74 // database still loading
	ErrFile             TypeCode = 75 // file retrieval failed
)
