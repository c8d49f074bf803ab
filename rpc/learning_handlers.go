package rpc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"learnchain/core/types"
	"learnchain/crypto"
)

func (s *Server) handleSendTransaction(w *codeRecorder, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "expected transaction object", nil)
		return
	}
	var tx types.Transaction
	if err := json.Unmarshal(req.Params[0], &tx); err != nil {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "invalid transaction payload", err.Error())
		return
	}
	receipt, err := s.node.Submit(r.Context(), &tx)
	if err != nil {
		s.logger.Debug("transaction rejected",
			slog.String("requestId", RequestIDFromContext(r.Context())),
			slog.Any("error", err))
		w.failErr(req.ID, err)
		return
	}
	s.logger.Info("transaction committed",
		slog.String("requestId", RequestIDFromContext(r.Context())),
		slog.String("txHash", receipt.TxHash),
		slog.String("type", receipt.Type))
	writeResult(w, req.ID, receiptResult(receipt))
}

func (s *Server) handleGetProgramConfig(w *codeRecorder, _ *http.Request, req *RPCRequest) {
	cfg, err := s.node.ProgramConfig()
	if err != nil {
		w.failErr(req.ID, err)
		return
	}
	writeResult(w, req.ID, programResult(cfg))
}

func (s *Server) handleGetCourse(w *codeRecorder, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "expected course id", nil)
		return
	}
	id, ok := stringParam(w, req, 0, "course id")
	if !ok {
		return
	}
	course, err := s.node.Course(id)
	if err != nil {
		w.failErr(req.ID, err)
		return
	}
	writeResult(w, req.ID, courseResult(course))
}

func (s *Server) handleGetLearner(w *codeRecorder, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "expected learner address", nil)
		return
	}
	wallet, ok := addressParam(w, req, 0)
	if !ok {
		return
	}
	learner, err := s.node.Learner(wallet)
	if err != nil {
		w.failErr(req.ID, err)
		return
	}
	writeResult(w, req.ID, learnerResult(learner))
}

func (s *Server) handleGetCompletion(w *codeRecorder, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 2 {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "expected learner address and course id", nil)
		return
	}
	wallet, ok := addressParam(w, req, 0)
	if !ok {
		return
	}
	id, ok := stringParam(w, req, 1, "course id")
	if !ok {
		return
	}
	record, err := s.node.Completion(wallet, id)
	if err != nil {
		w.failErr(req.ID, err)
		return
	}
	writeResult(w, req.ID, completionResult(record))
}

func (s *Server) handleGetMintConfig(w *codeRecorder, _ *http.Request, req *RPCRequest) {
	cfg, err := s.node.MintConfig()
	if err != nil {
		w.failErr(req.ID, err)
		return
	}
	writeResult(w, req.ID, mintConfigResult(cfg))
}

func (s *Server) handleGetBalance(w *codeRecorder, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "expected address", nil)
		return
	}
	owner, ok := addressParam(w, req, 0)
	if !ok {
		return
	}
	balance, err := s.node.Balance(owner)
	if err != nil {
		w.failErr(req.ID, err)
		return
	}
	supply, err := s.node.Supply()
	if err != nil {
		w.failErr(req.ID, err)
		return
	}
	writeResult(w, req.ID, BalanceResult{Address: bech32(owner), Balance: balance, Supply: supply})
}

func (s *Server) handleGetNonce(w *codeRecorder, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "expected address", nil)
		return
	}
	addr, ok := addressParam(w, req, 0)
	if !ok {
		return
	}
	nonce, err := s.node.Nonce(addr)
	if err != nil {
		w.failErr(req.ID, err)
		return
	}
	writeResult(w, req.ID, NonceResult{Address: bech32(addr), Nonce: nonce})
}

func stringParam(w *codeRecorder, req *RPCRequest, idx int, name string) (string, bool) {
	var value string
	if err := json.Unmarshal(req.Params[idx], &value); err != nil {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "invalid "+name, err.Error())
		return "", false
	}
	return value, true
}

func addressParam(w *codeRecorder, req *RPCRequest, idx int) ([20]byte, bool) {
	value, ok := stringParam(w, req, idx, "address")
	if !ok {
		return [20]byte{}, false
	}
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		w.fail(http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return [20]byte{}, false
	}
	return addr.Raw(), true
}
