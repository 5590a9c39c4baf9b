package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/MackanT/NibeTester/internal/frame"
	"github.com/MackanT/NibeTester/internal/protocol"
	"github.com/MackanT/NibeTester/internal/registry"
	"github.com/MackanT/NibeTester/internal/store"
	"github.com/MackanT/NibeTester/internal/transport"
)

// Run drives the session forever, one poll cycle at a time, until ctx
// is cancelled or the Transport reports a fatal error. Closing the
// Transport causes the in-flight Recv to fail, which this loop
// surfaces as its return value (spec.md §5 cancellation).
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.step(); err != nil {
			var te *transport.TransportError
			if errors.As(err, &te) {
				return err
			}
			log.Printf("[session] %v", err)
		}
	}
}

// step processes exactly one event: either a passive-mode data packet,
// or one full active-mode poll cycle (address confirmation through
// ACK/ENQ/NAK/ETX). It never blocks longer than the configured
// deadlines.
func (s *Session) step() error {
	if s.cfg.Mode == ModePassive {
		return s.stepPassive()
	}
	return s.stepActive()
}

func (s *Session) stepPassive() error {
	b, err := s.transport.Recv(s.cfg.RecvPollInterval)
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) {
			return nil
		}
		return err
	}
	if b.Value != frame.CmdData {
		return nil
	}
	s.receivePacket()
	return nil
}

func (s *Session) stepActive() error {
	b, err := s.transport.Recv(s.cfg.RecvPollInterval)
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) {
			return nil
		}
		return err
	}
	if b.Value != 0x00 {
		// Not a poll lead; IDLE ignores everything else.
		return nil
	}

	confirm, err := s.recvWithin(time.Now().Add(s.cfg.InterByteGap))
	if err != nil {
		// No confirming byte arrived in the inter-byte gap: the 0x00
		// was not a poll lead after all (spec.md §4.4 tag-inference rule).
		return nil
	}
	if confirm.Value != s.cfg.RCUAddr {
		// Poll addressed to another node; ignore and reset to IDLE.
		return nil
	}

	// Drain before the critical ACK/ENQ wait (spec.md §4.4).
	s.transport.Drain()

	select {
	case job := <-s.writeCh:
		s.pendingWrite = job
	default:
	}

	if s.pendingWrite != nil {
		s.state = StatePolledWrite
		return s.handleWritePoll()
	}
	s.state = StatePolledRead
	return s.handleReadPoll()
}

func (s *Session) handleReadPoll() error {
	if err := s.transport.Send(frame.AckByte); err != nil {
		s.state = StateIdle
		return err
	}
	deadline := time.Now().Add(s.cfg.ResponseDeadline)
	first, err := s.recvWithin(deadline)
	if err != nil {
		log.Printf("[session] timed out waiting for data packet after ACK")
		s.state = StateIdle
		return nil
	}
	if first.Value != frame.CmdData {
		s.state = StateIdle
		return nil
	}
	s.state = StateReceiving
	return s.receivePacketWithin(deadline)
}

func (s *Session) handleWritePoll() error {
	job := s.pendingWrite
	if err := s.transport.Send(frame.EnqByte); err != nil {
		s.completeWrite(job, err)
		s.state = StateIdle
		return err
	}
	ack, err := s.recvWithin(time.Now().Add(s.cfg.PostENQDelay))
	if err != nil || ack.Value != frame.ACK {
		s.completeWrite(job, ErrWriteTimeout)
		s.state = StateIdle
		return nil
	}

	s.state = StateWriting
	body, err := protocol.EncodeWrite(s.cfg.RCUAddr, job.Index, job.Size, job.Raw)
	if err != nil {
		s.completeWrite(job, err)
		s.state = StateIdle
		return err
	}
	packetBytes := make([]frame.Byte, len(body))
	for i, v := range body {
		packetBytes[i] = frame.DataByte(v)
	}
	if err := s.transport.SendMany(packetBytes); err != nil {
		s.completeWrite(job, err)
		s.state = StateIdle
		return err
	}

	resp, err := s.recvWithin(time.Now().Add(s.cfg.PostWritePacketDelay))
	switch {
	case err != nil:
		s.completeWrite(job, ErrWriteTimeout)
	case resp.Value == frame.ACK:
		if err := s.transport.Send(frame.ETX); err != nil {
			s.completeWrite(job, err)
			s.state = StateIdle
			return err
		}
		s.completeWrite(job, nil)
	case resp.Value == frame.NAK:
		s.completeWrite(job, ErrWriteRejected)
	default:
		s.completeWrite(job, ErrWriteTimeout)
	}
	s.state = StateIdle
	return nil
}

func (s *Session) completeWrite(job *writeJob, err error) {
	job.done <- err
	close(job.done)
	s.pendingWrite = nil
}

// receivePacketWithin assembles and decodes one data packet whose
// leading 0xC0 has already been consumed, honoring deadline for every
// remaining byte.
func (s *Session) receivePacketWithin(deadline time.Time) error {
	buf := []byte{frame.CmdData}
	for len(buf) < protocol.HeaderLength() {
		b, err := s.recvWithin(deadline)
		if err != nil {
			s.state = StateIdle
			return nil
		}
		buf = append(buf, b.Value)
	}
	bodyLen, err := protocol.BodyLength(buf)
	if err != nil {
		s.state = StateIdle
		return nil
	}
	for len(buf) < protocol.HeaderLength()+bodyLen {
		b, err := s.recvWithin(deadline)
		if err != nil {
			s.state = StateIdle
			return nil
		}
		buf = append(buf, b.Value)
	}

	return s.decodeAndRespond(buf)
}

// receivePacket is the passive-mode counterpart: it has no poll-driven
// deadline, so it uses ResponseDeadline as a generous ceiling for the
// whole packet.
func (s *Session) receivePacket() {
	deadline := time.Now().Add(s.cfg.ResponseDeadline)
	_ = s.receivePacketWithin(deadline)
}

func (s *Session) decodeAndRespond(buf []byte) error {
	pkt, err := protocol.Decode(buf, s.reg, s.cfg.DefaultWidth, s.cfg.MasterAddr)

	var chkErr *protocol.ChecksumError
	if errors.As(err, &chkErr) {
		s.consecutiveChkErrs++
		log.Printf("[session] checksum error: %v", err)
		if s.consecutiveChkErrs >= 3 && s.onBusNoisy != nil {
			s.onBusNoisy()
		}
		if s.cfg.Mode == ModeActive {
			if sendErr := s.transport.Send(frame.NakByte); sendErr != nil {
				s.state = StateIdle
				return sendErr
			}
		}
		s.state = StateIdle
		return nil
	}
	if err != nil {
		// FramingError or AddressingError: local, reset, do not emit.
		log.Printf("[session] %v", err)
		s.state = StateIdle
		return nil
	}

	s.consecutiveChkErrs = 0
	for _, p := range pkt.Params {
		s.applyParam(p)
	}

	s.state = StateIdle
	if s.cfg.Mode != ModeActive {
		return nil
	}
	if err := s.transport.Send(frame.AckByte); err != nil {
		return err
	}
	return s.transport.Send(frame.ETX)
}

func (s *Session) applyParam(p protocol.ParamRecord) {
	var entry store.Entry
	if p.Unknown {
		scalar := registry.Decoded{Kind: registry.KindInteger, I: int64(p.Raw)}
		entry = store.Entry{Index: p.Index, Scalar: &scalar, Warning: "UnknownParameter"}
	} else {
		def, _ := s.reg.Definition(p.Index)
		scalar, fields := registry.Project(p.Raw, def)
		entry = store.Entry{Index: p.Index, Scalar: scalar, Fields: fields}
	}
	s.store.Put(entry)
	if s.callback != nil {
		s.callback(entry)
	}
}
