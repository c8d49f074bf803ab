package state

// AccountNonce returns the number of transactions committed by addr.
func (m *Manager) AccountNonce(addr [20]byte) (uint64, error) {
	var nonce uint64
	if _, err := m.getRLP(accountNonceKey(addr), &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// SetAccountNonce stages the nonce for addr.
func (m *Manager) SetAccountNonce(addr [20]byte, nonce uint64) error {
	return m.putRLP(accountNonceKey(addr), nonce)
}
