package narrative

const reportTemplate = `Analysis of {{.Symbol}} from {{.StartDate}} to {{.EndDate}} (last bar {{.Date}})

1. Trend
{{if eq .VsMA 1}}The instrument is in an uptrend: the close of {{.Close}} is above the 20-day average of {{.MIDA}}.
{{else if eq .VsMA -1}}The instrument is in a downtrend: the close of {{.Close}} is below the 20-day average of {{.MIDA}}.
{{else}}The close is {{.Close}}. There is not enough history for the 20-day average yet.
{{end}}{{if .ChannelDefined}}Support sits near {{.ChannelLower}} and resistance near {{.ChannelUpper}}.{{if eq .VsSupport 1}} Price is above support.{{else}} Price has fallen through support.{{end}}
{{else}}The trend channel is not available yet.
{{end}}
2. Technical signals
- Bollinger: {{if eq .VsMA 1}}price is above the middle band, the short-term trend holds up.{{else if eq .VsMA -1}}price is below the middle band, the short-term trend points down.{{else}}n/a{{end}}
- MACD: {{.MACD}}, {{if eq .MACDSign 1}}DIF is above the signal line, momentum is positive.{{else if eq .MACDSign -1}}DIF is below the signal line, the market may keep ranging.{{else}}not enough history.{{end}}
- RSI: {{.RSI}}{{if eq .RSIZone "overbought"}}, above 70, the instrument looks overbought.{{else if eq .RSIZone "strong"}}, above 50, buyers are in control.{{else if eq .RSIZone "weak"}}, below 50, the market is consolidating.{{else if eq .RSIZone "oversold"}}, below 30, the instrument looks oversold.{{else}}.{{end}}
- Momentum: {{if .BuySignal}}the VID/LONG chain turned up on the last bar.{{else if .SellSignal}}the VID/LONG chain turned down on the last bar.{{else}}no new momentum signal.{{end}}

3. Channel position
{{if .NearUpper}}Price is within 5% of channel resistance at {{.ChannelUpper}}.
{{end}}{{if .NearLower}}Price is within 5% of channel support at {{.ChannelLower}}.
{{end}}{{if not (or .NearUpper .NearLower)}}Price is not close to either channel bound.
{{end}}
4. Outlook
Short term: {{if eq .MACDSign 1}}rising{{else}}range-bound{{end}}.
{{if .Waiting}}No breakout signal. Wait for price to break support or resistance.{{else}}A breakout signal is active, act on the market signal.{{end}}
Positioning: {{if eq .VsSupport 1}}favour longs, with a 6:4 or 7:3 allocation.{{else}}stay mostly in cash and wait for a better entry.{{end}}

5. Next session
R-Breaker: {{.Advice}}. Expected range {{.NextDayLow}} to {{.NextDayHigh}}.

6. Volatility
ATR: {{.ATR}}{{if .ATRDefined}}{{if .ATRCalm}}, price action is stable.{{else}}, volatility is elevated, trade with care.{{end}}{{else}}.{{end}}
{{- if .Multiplier}}
Contract multiplier: {{.Multiplier}}.
{{- end}}
{{- with .Report}}

7. Backtest
Total return {{.TotalReturn}}, max drawdown {{.MaxDrawdown}}, Sharpe {{.SharpeRatio}}, win rate {{.WinRate}}.
Final asset {{.FinalAsset}} after {{.NumberOfTrades}} trades.
{{- end}}
`
