package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
)

const (
	loginOK            byte = 0x00
	loginBadVersion    byte = 0x01
	loginWrongPass     byte = 0x02
	loginAlreadyOnline byte = 0x03
	loginBanned        byte = 0x04
	loginServerFull    byte = 0x05
	loginThrottled     byte = 0x06
)

// HandleLogin processes the login request.
// Format: [string account][string password]
func HandleLogin(sess *net.Session, r *packet.Reader, deps *Deps) {
	if !sess.VersionOK {
		sendLoginResult(sess, loginBadVersion)
		return
	}

	accountName, err := r.ReadString()
	if err != nil {
		sess.Close()
		return
	}
	password, err := r.ReadString()
	if err != nil {
		sess.Close()
		return
	}
	accountName = strings.ToLower(accountName)
	ip := sess.IP

	if !deps.Logins.Allow(ip) {
		deps.Log.Warn("登入嘗試次數超限", zap.String("ip", ip))
		sendLoginResult(sess, loginThrottled)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	account, err := deps.AccountRepo.Load(ctx, accountName)
	if err != nil {
		deps.Log.Error("載入帳號資料庫錯誤", zap.Error(err))
		sendLoginResult(sess, loginWrongPass)
		return
	}

	// Auto-create on first login
	if account == nil {
		account, err = deps.AccountRepo.Create(ctx, accountName, password, ip)
		if err != nil {
			deps.Log.Error("建立帳號資料庫錯誤", zap.Error(err))
			sendLoginResult(sess, loginWrongPass)
			return
		}
		deps.Log.Info(fmt.Sprintf("自動建立帳號  帳號=%s", accountName))
	} else {
		if !deps.AccountRepo.ValidatePassword(account.PasswordHash, password) {
			sendLoginResult(sess, loginWrongPass)
			return
		}
	}

	if account.Banned {
		deps.Log.Info(fmt.Sprintf("被封鎖帳號嘗試登入  帳號=%s", accountName))
		sendLoginResult(sess, loginBanned)
		return
	}

	if account.Online || deps.World.GetByAccount(accountName) != nil {
		sendLoginResult(sess, loginAlreadyOnline)
		return
	}

	if deps.World.PlayerCount() >= deps.Config.Server.MaxPlayers {
		sendLoginResult(sess, loginServerFull)
		return
	}

	if err := deps.AccountRepo.SetOnline(ctx, accountName, true); err != nil {
		deps.Log.Error("設定上線狀態資料庫錯誤", zap.Error(err))
	}
	if err := deps.AccountRepo.UpdateLastActive(ctx, accountName, ip); err != nil {
		deps.Log.Error("更新最後活動時間資料庫錯誤", zap.Error(err))
	}

	sess.AccountName = accountName
	sess.Authority = account.Admin
	sess.SetState(packet.StateAuthenticated)
	sendLoginResult(sess, loginOK)

	deps.Log.Info(fmt.Sprintf("登入成功  帳號=%s  ip=%s", accountName, ip))
}

// sendLoginResult 發送登入結果。
// Format: [opcode][u8 reason]
func sendLoginResult(sess *net.Session, reason byte) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_LOGIN_RESULT)
	w.WriteUint8(reason)
	sess.Send(w.Bytes())
}
