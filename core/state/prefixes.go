package state

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

var (
	learningProgramKeyBytes  = []byte("learning/program")
	learningCoursePrefix     = []byte("learning/course/")
	learningLearnerPrefix    = []byte("learning/learner/")
	learningCompletionPrefix = []byte("learning/completion/")
	tokenMintConfigPrefix    = []byte("token/mint-config/")
	tokenMintPrefix          = []byte("token/mint/")
	tokenBalancePrefix       = []byte("token/balance/")
	accountNoncePrefix       = []byte("account/nonce/")
)

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func learningProgramKey() []byte { return ethcrypto.Keccak256(learningProgramKeyBytes) }

func learningCourseKey(id string) []byte { return prefixedKey(learningCoursePrefix, []byte(id)) }

func learningLearnerKey(wallet [20]byte) []byte {
	return prefixedKey(learningLearnerPrefix, wallet[:])
}

func learningCompletionKey(course, learner [20]byte) []byte {
	return prefixedKey(learningCompletionPrefix, course[:], learner[:])
}

func tokenMintConfigKey(mint [20]byte) []byte { return prefixedKey(tokenMintConfigPrefix, mint[:]) }

func tokenMintKey(mint [20]byte) []byte { return prefixedKey(tokenMintPrefix, mint[:]) }

func tokenBalanceKey(mint, owner [20]byte) []byte {
	return prefixedKey(tokenBalancePrefix, mint[:], owner[:])
}

func accountNonceKey(addr [20]byte) []byte { return prefixedKey(accountNoncePrefix, addr[:]) }
