package stealth

// basicEvasions hides the most common headless fingerprints: the webdriver
// flag, empty plugin and language lists, the missing chrome runtime object,
// the notification permission mismatch and the headless WebGL vendor.
const basicEvasions = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });

Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });

Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });

window.chrome = window.chrome || { runtime: {} };

const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
  parameters.name === 'notifications'
    ? Promise.resolve({ state: Notification.permission })
    : originalQuery(parameters)
);

const getParameter = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function (parameter) {
  if (parameter === 37445) {
    return 'Intel Inc.';
  }
  if (parameter === 37446) {
    return 'Mesa X11';
  }
  return getParameter.call(this, parameter);
};
`
