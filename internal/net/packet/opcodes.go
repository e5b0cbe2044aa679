package packet

// Client → server opcodes.
const (
	C_OPCODE_VERSION byte = 0x01
	C_OPCODE_LOGIN   byte = 0x02
	C_OPCODE_JOIN    byte = 0x03
	C_OPCODE_COMMAND byte = 0x04
	C_OPCODE_RESYNC  byte = 0x05
	C_OPCODE_QUIT    byte = 0x06
)

// Server → client opcodes.
const (
	S_OPCODE_INITPACKET   byte = 0x65
	S_OPCODE_LOGIN_RESULT byte = 0x66
	S_OPCODE_JOIN_RESULT  byte = 0x67
	S_OPCODE_FRAME_BUNDLE byte = 0x68
	S_OPCODE_SNAPSHOT     byte = 0x69
	S_OPCODE_DISCONNECT   byte = 0x6a
	S_OPCODE_CHAT         byte = 0x6b
)
